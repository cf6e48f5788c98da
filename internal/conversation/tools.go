package conversation

// Tool names one of the server-side capabilities Grok can use while
// generating a reply. The set is fixed; anything else is not a tool.
type Tool string

const (
	ToolWebSearch         Tool = "web_search"
	ToolXSearch           Tool = "x_search"
	ToolCodeExecution     Tool = "code_execution"
	ToolCollectionsSearch Tool = "collections_search"
)

// AvailableTools lists every selectable tool in display order.
var AvailableTools = []Tool{
	ToolWebSearch,
	ToolXSearch,
	ToolCodeExecution,
	ToolCollectionsSearch,
}

// KnownTool reports whether name is one of the fixed tools.
func KnownTool(name string) bool {
	for _, t := range AvailableTools {
		if string(t) == name {
			return true
		}
	}
	return false
}

// ParseTools converts raw selection values into a tool set, silently dropping
// unknown names and duplicates. Order follows AvailableTools so the result is
// stable regardless of selection order.
func ParseTools(names []string) []Tool {
	selected := make(map[Tool]bool, len(names))
	for _, name := range names {
		if KnownTool(name) {
			selected[Tool(name)] = true
		}
	}

	var tools []Tool
	for _, t := range AvailableTools {
		if selected[t] {
			tools = append(tools, t)
		}
	}
	return tools
}

func cloneTools(tools []Tool) []Tool {
	if tools == nil {
		return nil
	}
	out := make([]Tool, len(tools))
	copy(out, tools)
	return out
}
