package handlers

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/webqa/api"
	"github.com/BaSui01/webqa/internal/store"
	"github.com/BaSui01/webqa/types"
)

// ScansHandler starts scans and lists run history. Scans run as a child
// process of the host so a browser crash can never take the API down with
// it; stdout is streamed to websocket subscribers through the hub.
type ScansHandler struct {
	store      *store.Store
	hub        *Hub
	logger     *zap.Logger
	scanBinary string

	// startMu serializes the active-run check with run creation so two
	// concurrent POSTs cannot both pass the single-scan gate.
	startMu sync.Mutex
}

// NewScansHandler wires the scan lifecycle handler.
func NewScansHandler(st *store.Store, hub *Hub, scanBinary string, logger *zap.Logger) *ScansHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if scanBinary == "" {
		scanBinary = "webqa"
	}
	return &ScansHandler{
		store:      st,
		hub:        hub,
		logger:     logger.With(zap.String("component", "scans")),
		scanBinary: scanBinary,
	}
}

// Create handles POST /api/v1/scans. One scan at a time: a second request
// while a run is active gets 409.
func (h *ScansHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req api.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, types.NewError(types.ErrInvalidRequest, "malformed request body"), h.logger)
		return
	}
	if err := validateScanURL(req.URL); err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.startMu.Lock()
	active, err := h.store.Active()
	if err != nil {
		h.startMu.Unlock()
		WriteError(w, types.WrapError(types.ErrInternalError, "query active run", err), h.logger)
		return
	}
	if active != nil {
		h.startMu.Unlock()
		WriteError(w, types.NewError(types.ErrRunActive, "a scan is already running: "+active.ID), h.logger)
		return
	}

	runID := strings.Split(uuid.NewString(), "-")[0]
	run := &store.Run{ID: runID, URL: req.URL, Scope: req.Scope}
	if err := h.store.Create(run); err != nil {
		h.startMu.Unlock()
		WriteError(w, types.WrapError(types.ErrInternalError, "record run", err), h.logger)
		return
	}
	h.startMu.Unlock()

	if err := h.spawn(runID, req); err != nil {
		_ = h.store.Finish(runID, store.StatusFailed, 0, "")
		WriteError(w, types.WrapError(types.ErrInternalError, "start scan process", err), h.logger)
		return
	}

	WriteJSON(w, http.StatusAccepted, Response{
		Success: true,
		Data:    api.ScanAccepted{RunID: runID, Status: store.StatusRunning},
	})
}

// spawn launches the scan subprocess and follows it to completion in the
// background.
func (h *ScansHandler) spawn(runID string, req api.ScanRequest) error {
	args := []string{"scan", "--url", req.URL}
	if req.Scope != "" {
		args = append(args, "--scope", req.Scope)
	}
	cmd := exec.Command(h.scanBinary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return err
	}
	h.logger.Info("scan process started",
		zap.String("run_id", runID),
		zap.String("url", req.URL),
		zap.Int("pid", cmd.Process.Pid))

	go h.follow(runID, cmd, stdout)
	return nil
}

func (h *ScansHandler) follow(runID string, cmd *exec.Cmd, stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		h.hub.Publish(runID, scanner.Text())
	}

	status := store.StatusCompleted
	if err := cmd.Wait(); err != nil {
		status = store.StatusFailed
		h.logger.Warn("scan process failed", zap.String("run_id", runID), zap.Error(err))
	}
	if err := h.store.Finish(runID, status, 0, ""); err != nil {
		h.logger.Error("finalize run failed", zap.String("run_id", runID), zap.Error(err))
	}
	h.hub.Publish(runID, "scan "+status)
}

// List handles GET /api/v1/scans.
func (h *ScansHandler) List(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.List(50)
	if err != nil {
		WriteError(w, types.WrapError(types.ErrInternalError, "list runs", err), h.logger)
		return
	}

	out := make([]api.RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, api.RunSummary{
			RunID:      run.ID,
			URL:        run.URL,
			Scope:      run.Scope,
			Status:     run.Status,
			BugCount:   run.BugCount,
			ReportPath: run.ReportPath,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
		})
	}
	WriteSuccess(w, out)
}

func validateScanURL(raw string) *types.Error {
	if raw == "" {
		return types.NewError(types.ErrInvalidRequest, "url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return types.NewError(types.ErrInvalidRequest, "url must be absolute http or https")
	}
	return nil
}
