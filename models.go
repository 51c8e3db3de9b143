package main

import (
	"encoding/json"
	"net/http"
)

// OpsReply is the JSON envelope of every ops endpoint answer. Failures
// carry no data; listings carry their total.
type OpsReply struct {
	RequestID string      `json:"requestid"`
	Status    int         `json:"status"`
	Message   string      `json:"message"`
	Total     *int        `json:"total,omitempty"`
	Data      interface{} `json:"data"`
}

// failure builds the reply of a request which could not be served.
func failure(requestID string, status int, message string) *OpsReply {
	return &OpsReply{RequestID: requestID, Status: status, Message: message, Data: struct{}{}}
}

// success builds an OK reply.
func success(requestID, message string, data interface{}) *OpsReply {
	return &OpsReply{RequestID: requestID, Status: http.StatusOK, Message: message, Data: data}
}

// listing builds an OK reply for a collection and reports its size.
func listing[T any](requestID, message string, items []T) *OpsReply {
	total := len(items)
	reply := success(requestID, message, items)
	reply.Total = &total
	return reply
}

// writeJSON sends v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
