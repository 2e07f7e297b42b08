package server

// API routes.
const (
	RouteToken        = "/api/token"
	RouteTokenRefresh = "/api/token/refresh"
	RouteRegister     = "/api/auth/register"
	RouteMe           = "/api/auth/me"
	RouteTasks        = "/api/tasks"
	RouteTaskByID     = "/api/tasks/{id}"

	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
