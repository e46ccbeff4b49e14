package api

import (
	"net/http"

	"github.com/phrazzld/tempo/internal/api/shared"
)

// HealthHandler answers GET /health with the registry's liveness counters.
func HealthHandler(timers TimerRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
			Status:       "ok",
			ActiveTimers: timers.TotalActiveTimers(),
			Ticking:      timers.Ticking(),
		})
	}
}
