package server

import "github.com/prometheus/client_golang/prometheus/promhttp"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())

	// Auth routes: the only endpoints that don't carry a bearer token
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteTokenRefresh, ChainMiddleware(s.TokenRefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))

	// Profile
	s.RegisterRouteHandler("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteMe, ChainMiddleware(s.UpdateMeHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Tasks, always scoped to the authenticated owner
	s.RegisterRouteHandler("GET "+RouteTasks, ChainMiddleware(s.ListTasksHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("POST "+RouteTasks, ChainMiddleware(s.CreateTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("GET "+RouteTaskByID, ChainMiddleware(s.GetTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("PUT "+RouteTaskByID, ChainMiddleware(s.ReplaceTaskHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteHandler("DELETE "+RouteTaskByID, ChainMiddleware(s.DeleteTaskHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CORS preflight for every API path
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(noContentHandler(), s.APIMiddleware()...))
}
