package hooks

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VisualizationFormat represents the output format for catalogue visualization.
type VisualizationFormat string

const (
	FormatText    VisualizationFormat = "text"
	FormatMermaid VisualizationFormat = "mermaid"
	FormatJSON    VisualizationFormat = "json"
)

// Visualize renders the hooks of reg grouped by stage in run order.
func Visualize(reg *Registry, format VisualizationFormat) (string, error) {
	switch format {
	case FormatText, "":
		return visualizeText(reg), nil
	case FormatMermaid:
		return visualizeMermaid(reg), nil
	case FormatJSON:
		return visualizeJSON(reg)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func visualizeText(reg *Registry) string {
	var sb strings.Builder
	sb.WriteString("Hook Pipeline\n")
	sb.WriteString("=============\n\n")

	stages := 0
	for _, stage := range Stages() {
		list := reg.ForStage(stage)
		if len(list) == 0 {
			continue
		}
		stages++
		fmt.Fprintf(&sb, "┌─ %s (%s scope)\n", stage, stage.Scope())
		for j, h := range list {
			prefix := "├──"
			if j == len(list)-1 {
				prefix = "└──"
			}
			fmt.Fprintf(&sb, "│ %s [%3d] %s\n", prefix, h.Priority, h.Name)
		}
		sb.WriteString("│\n")
	}
	fmt.Fprintf(&sb, "\nTotal: %d hooks across %d stages\n", reg.Len(), stages)
	return sb.String()
}

func visualizeMermaid(reg *Registry) string {
	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("graph TD\n")

	var prevStage string
	for _, stage := range Stages() {
		list := reg.ForStage(stage)
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "    subgraph %s[\"Stage: %s\"]\n", stage, stage)
		var prev string
		for _, h := range list {
			node := string(stage) + "_" + h.Name
			fmt.Fprintf(&sb, "        %s[\"%s (%d)\"]\n", node, h.Name, h.Priority)
			if prev != "" {
				fmt.Fprintf(&sb, "        %s --> %s\n", prev, node)
			}
			prev = node
		}
		sb.WriteString("    end\n")
		if prevStage != "" {
			fmt.Fprintf(&sb, "    %s --> %s\n", prevStage, stage)
		}
		prevStage = string(stage)
	}
	sb.WriteString("```\n")
	return sb.String()
}

type hookJSON struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
}

type stageJSON struct {
	Stage string     `json:"stage"`
	Scope string     `json:"scope"`
	Hooks []hookJSON `json:"hooks"`
}

func visualizeJSON(reg *Registry) (string, error) {
	out := make([]stageJSON, 0, len(stageOrder))
	for _, stage := range Stages() {
		list := reg.ForStage(stage)
		if len(list) == 0 {
			continue
		}
		s := stageJSON{Stage: string(stage), Scope: stage.Scope().String()}
		for _, h := range list {
			s.Hooks = append(s.Hooks, hookJSON{Name: h.Name, Description: h.Description, Priority: h.Priority})
		}
		out = append(out, s)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal hooks: %w", err)
	}
	return string(data), nil
}
