// SPDX-License-Identifier: BSD-3-Clause

package websrv

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kilnctl/kilnctl/internal/ipc"
)

func (s *WebSrv) router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /status", s.proxy(ipc.SubjectStatus))
	mux.HandleFunc("GET /programs", s.proxy(ipc.SubjectCmdPrograms))
	mux.HandleFunc("POST /start", s.proxy(ipc.SubjectCmdStart))
	mux.HandleFunc("POST /stop", s.proxy(ipc.SubjectCmdStop))
	mux.HandleFunc("POST /pause", s.proxy(ipc.SubjectCmdPause))
	mux.HandleFunc("POST /emergency", s.proxy(ipc.SubjectCmdEmergency))
	mux.HandleFunc("POST /pid/tune", s.proxy(ipc.SubjectCmdTunePID))
	mux.HandleFunc("POST /programs/save", s.proxy(ipc.SubjectCmdSaveProgram))
	mux.HandleFunc("DELETE /programs/{id}", s.deleteProgram)
	mux.HandleFunc("POST /errors/clear", s.proxy(ipc.SubjectCmdClearErrors))
	mux.HandleFunc("POST /test/{target}", s.test)

	return mux
}

// proxy forwards the request body verbatim as the NATS request payload
// and relays the JSON reply back unchanged, per spec.md §6's "each
// command returns a structured result".
func (s *WebSrv) proxy(subject string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read request body", http.StatusBadRequest)
			return
		}
		s.forward(w, subject, body)
	}
}

func (s *WebSrv) forward(w http.ResponseWriter, subject string, payload []byte) {
	msg, err := s.nc.Request(subject, payload, s.requestTimeout)
	if err != nil {
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
		return
	}
	var errResp ipc.ErrorResponse
	if json.Unmarshal(msg.Data, &errResp) == nil && errResp.Error != "" {
		status := http.StatusBadRequest
		if errResp.NotFound {
			status = http.StatusNotFound
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(msg.Data) //nolint:errcheck
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(msg.Data) //nolint:errcheck
}

func (s *WebSrv) deleteProgram(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid program id", http.StatusBadRequest)
		return
	}
	body, err := json.Marshal(ipc.DeleteProgramRequest{ID: id})
	if err != nil {
		http.Error(w, "encode request", http.StatusInternalServerError)
		return
	}
	s.forward(w, ipc.SubjectCmdDeleteProgram, body)
}

func (s *WebSrv) test(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.PathValue("target"))
	body, err := json.Marshal(ipc.TestRequest{Target: target})
	if err != nil {
		http.Error(w, "encode request", http.StatusInternalServerError)
		return
	}
	s.forward(w, ipc.SubjectCmdTest, body)
}
