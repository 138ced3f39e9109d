package api

import (
	"net/http"

	"github.com/ayusman/mudra/internal/consumer"
)

// ConsumerLister lists the discovered consumers.
type ConsumerLister interface {
	List() []*consumer.Consumer
}

// ConsumerHandler serves GET /api/consumers.
type ConsumerHandler struct {
	consumers ConsumerLister
}

// NewConsumerHandler creates a new ConsumerHandler.
func NewConsumerHandler(c ConsumerLister) *ConsumerHandler {
	return &ConsumerHandler{consumers: c}
}

type listConsumersResponse struct {
	Consumers []consumer.Manifest `json:"consumers"`
}

func (h *ConsumerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	list := h.consumers.List()
	response := listConsumersResponse{
		Consumers: make([]consumer.Manifest, 0, len(list)),
	}
	for _, c := range list {
		response.Consumers = append(response.Consumers, c.Manifest)
	}

	writeJSON(w, http.StatusOK, response)
}
