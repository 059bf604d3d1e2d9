package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/align-alt-therapy/align-backend/internal/middleware"
)

// UnblockIPRequest identifies the blocked address to release
type UnblockIPRequest struct {
	IPAddress string `json:"ip_address"`
}

// UnblockIPAddress removes a rate-limit block for an IP (admin)
func UnblockIPAddress(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}

	var req UnblockIPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	req.IPAddress = strings.TrimSpace(req.IPAddress)
	if net.ParseIP(req.IPAddress) == nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "A valid IP address is required",
		})
		return
	}

	if err := middleware.UnblockIP(req.IPAddress); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"message": "Failed to unblock IP",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "IP unblocked",
	})
}
