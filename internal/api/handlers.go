package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"

	"devforge/internal/archive"
	"devforge/internal/llm"
	"devforge/internal/logger"
	"devforge/internal/mission"
	"devforge/internal/orchestrator"
	"devforge/internal/store"
)

type Handlers struct {
	orch *orchestrator.Orchestrator
}

func NewHandlers(orch *orchestrator.Orchestrator) *Handlers {
	return &Handlers{orch: orch}
}

func jsonOK(c *gin.Context, data gin.H) {
	out := gin.H{"ok": true}
	for k, v := range data {
		out[k] = v
	}
	c.JSON(http.StatusOK, out)
}

func jsonErr(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"ok": false, "error": err.Error()})
}

// statusFor maps the engine's error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var badStatus *llm.BadStatusError
	var malformed *mission.MalformedJSONError
	switch {
	case errors.Is(err, orchestrator.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrMissionNotFound):
		return http.StatusNotFound
	case errors.Is(err, archive.ErrNoFiles):
		return http.StatusNotFound
	case errors.Is(err, llm.ErrBackendUnreachable),
		errors.Is(err, llm.ErrBadPayload),
		errors.Is(err, mission.ErrNoJSONFound),
		errors.As(err, &badStatus),
		errors.As(err, &malformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func missionIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid mission id", orchestrator.ErrInvalidInput)
	}
	return id, nil
}

func (h *Handlers) CreateMission(c *gin.Context) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonErr(c, fmt.Errorf("%w: %v", orchestrator.ErrInvalidInput, err))
		return
	}

	id, err := h.orch.CreateMission(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		jsonErr(c, err)
		return
	}
	jsonOK(c, gin.H{"mission_id": id})
}

func (h *Handlers) ListMissions(c *gin.Context) {
	list, err := h.orch.ListMissions(c.Request.Context())
	if err != nil {
		jsonErr(c, err)
		return
	}
	if list == nil {
		list = []mission.Summary{}
	}
	jsonOK(c, gin.H{"missions": list})
}

func (h *Handlers) GetMission(c *gin.Context) {
	id, err := missionIDParam(c)
	if err != nil {
		jsonErr(c, err)
		return
	}

	m, steps, err := h.orch.GetMission(c.Request.Context(), id)
	if err != nil {
		jsonErr(c, err)
		return
	}
	if steps == nil {
		steps = []mission.Step{}
	}
	jsonOK(c, gin.H{"mission": m, "steps": steps})
}

func (h *Handlers) ExecuteStep(c *gin.Context) {
	id, err := missionIDParam(c)
	if err != nil {
		jsonErr(c, err)
		return
	}

	out, err := h.orch.ExecuteStep(c.Request.Context(), id)
	if err != nil {
		jsonErr(c, err)
		return
	}
	if out.AlreadyCompleted {
		jsonOK(c, gin.H{"mission_id": id, "message": "mission already completed"})
		return
	}
	if out.Files == nil {
		out.Files = []string{}
	}
	jsonOK(c, gin.H{
		"mission_id":        out.MissionID,
		"step_index":        out.StepIndex,
		"next_step":         out.NextStep,
		"files":             out.Files,
		"mission_completed": out.MissionCompleted,
	})
}

func (h *Handlers) GetLogs(c *gin.Context) {
	id, err := missionIDParam(c)
	if err != nil {
		jsonErr(c, err)
		return
	}

	logs, err := h.orch.GetLogs(c.Request.Context(), id)
	if err != nil {
		jsonErr(c, err)
		return
	}
	if logs == nil {
		logs = []mission.LogEntry{}
	}
	jsonOK(c, gin.H{"logs": logs})
}

func (h *Handlers) DownloadArchive(c *gin.Context) {
	id, err := missionIDParam(c)
	if err != nil {
		jsonErr(c, err)
		return
	}
	if _, _, err := h.orch.GetMission(c.Request.Context(), id); err != nil {
		jsonErr(c, err)
		return
	}

	path, err := archive.ExportToTemp(h.orch.MissionRoot(id), id)
	if err != nil {
		jsonErr(c, err)
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			logger.Log.Warnw("could not remove temp archive", "path", path, "error", err)
		}
	}()

	c.FileAttachment(path, fmt.Sprintf("mission_%d.zip", id))
}
