package server

import "strings"

var systemPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/info":    true,
	"/metrics": true,
}

// formatHandlerName shortens Gin's handler path, e.g.
// "github.com/kbukum/streamkit/server.(*StreamAPI).Publish-fm" becomes
// "StreamAPI.Publish".
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	// Closures: "endpoint.Health.func1" -> "health"
	parts := strings.Split(name, ".")
	if last := parts[len(parts)-1]; strings.HasPrefix(last, "func") && len(parts) > 1 {
		return strings.ToLower(parts[len(parts)-2])
	}
	if len(parts) > 1 && strings.ToLower(parts[0]) == parts[0] {
		return strings.Join(parts[1:], ".")
	}
	return name
}

func methodOrder(method string) int {
	switch method {
	case "GET":
		return 0
	case "POST":
		return 1
	case "PUT":
		return 2
	case "PATCH":
		return 3
	case "DELETE":
		return 4
	default:
		return 5
	}
}
