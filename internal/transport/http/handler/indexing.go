package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vetvalidator/internal/app"
	"vetvalidator/internal/model"
	"vetvalidator/internal/transport/http/response"
)

// IndexingHandler accepts external status notifications for indexing
// operations. Notifications are published onto the same queue the operation
// poller feeds, so the detector sees one at-least-once stream either way.
type IndexingHandler struct {
	publisher app.EventPublisher
	queueName string
}

type IndexingNotifyRequest struct {
	OperationRef string `json:"operation_ref" binding:"required"`
	Status       string `json:"status" binding:"required"`
	Error        string `json:"error"`
}

func NewIndexingHandler(publisher app.EventPublisher, queueName string) *IndexingHandler {
	return &IndexingHandler{publisher: publisher, queueName: queueName}
}

func (h *IndexingHandler) Notify(c *gin.Context) {
	var req IndexingNotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	status := model.OperationStatus(req.Status)
	switch status {
	case model.OperationRunning, model.OperationCompleted, model.OperationFailed:
	default:
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unknown operation status")
		return
	}

	evt := model.IndexingStatusEvent{
		OperationRef: req.OperationRef,
		Status:       status,
		Error:        req.Error,
	}
	if err := h.publisher.Publish(c.Request.Context(), h.queueName, evt); err != nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeInternalServer, "enqueue notification failed")
		return
	}
	response.OK(c, gin.H{"accepted_operation_ref": req.OperationRef})
}
