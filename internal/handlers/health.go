package handlers

import "net/http"

const serviceName = "alumnet-api"

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HealthCheck is the liveness endpoint for load balancer checks. It only
// reports that the process is serving; it does not touch the database.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: serviceName})
}
