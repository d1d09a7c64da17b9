package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/kbukum/streamkit/component"
)

const componentName = "http-server"

var (
	_ component.Component     = (*Server)(nil)
	_ component.Describable   = (*Server)(nil)
	_ component.RouteProvider = (*Server)(nil)
)

// Name returns the component name used for registration.
func (s *Server) Name() string { return componentName }

// Health reports unhealthy until the listener is bound.
func (s *Server) Health(_ context.Context) component.Health {
	if !s.started() {
		return component.Health{
			Name:    componentName,
			Status:  component.StatusUnhealthy,
			Message: "not listening",
		}
	}
	return component.Health{Name: componentName, Status: component.StatusHealthy, Message: s.Addr()}
}

// Describe returns infrastructure summary info for the startup log.
func (s *Server) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s:%d h2c", s.config.Host, s.config.Port),
		Port:    s.config.Port,
	}
}

// Routes returns registered Gin routes, stream routes first, then system
// routes, each group sorted by path and method.
func (s *Server) Routes() []component.Route {
	ginRoutes := s.engine.Routes()
	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys, jSys := systemPaths[ginRoutes[i].Path], systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: formatHandlerName(r.Handler),
		})
	}
	return routes
}
