// Package tasks exposes the assignment API: the technician's task list,
// lifecycle status updates, photo attachment, and the admin dispatch flow.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gcnet/fieldtasks/internal/app/features/shared"
	assignmentstore "github.com/gcnet/fieldtasks/internal/app/store/assignments"
	"github.com/gcnet/fieldtasks/internal/app/system/auth"
	"github.com/gcnet/fieldtasks/internal/app/system/photos"
	"github.com/gcnet/fieldtasks/internal/app/system/status"
	"github.com/gcnet/fieldtasks/internal/app/system/timeouts"
	"github.com/gcnet/fieldtasks/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxPhotoMemory bounds the in-memory portion of a multipart photo batch;
// larger parts spill to temp files.
const maxPhotoMemory = 32 << 20

// Notifier fans assignment events out to a user's inbox and device.
type Notifier interface {
	Notify(ctx context.Context, userID primitive.ObjectID, typ models.NotificationType, title, message string, assignmentID *primitive.ObjectID) (models.Notification, error)
}

// Attacher runs a photo batch against an assignment.
type Attacher interface {
	Attach(ctx context.Context, assignmentID primitive.ObjectID, uploads []photos.Upload) ([]models.Photo, int, error)
}

// Handler owns all assignment endpoints.
type Handler struct {
	Assignments *assignmentstore.Store
	Photos      Attacher
	Relay       Notifier
	Log         *zap.Logger
}

// NewHandler constructs a tasks Handler.
func NewHandler(assignments *assignmentstore.Store, attacher Attacher, notifier Notifier, logger *zap.Logger) *Handler {
	return &Handler{
		Assignments: assignments,
		Photos:      attacher,
		Relay:       notifier,
		Log:         logger,
	}
}

// List handles GET /tasks: every assignment delegated to the signed-in
// user, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Assignments.ListForUser(ctx, userID)
	if err != nil {
		h.storeError(w, "tasks: list failed", err, u.Username)
		return
	}
	if list == nil {
		list = []models.Assignment{}
	}
	shared.JSON(w, http.StatusOK, list)
}

// Get handles GET /tasks/{assignmentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, _, ok := sessionUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Assignments.GetByID(ctx, id)
	if err != nil {
		h.storeError(w, "tasks: get failed", err, u.Username)
		return
	}
	if !canAccess(u, a) {
		// Other users' assignments are indistinguishable from absent ones.
		shared.Error(w, http.StatusNotFound, "assignment not found")
		return
	}
	shared.JSON(w, http.StatusOK, a)
}

type createRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Address     string     `json:"address"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Notes       string     `json:"notes"`
	AssignedTo  string     `json:"assigned_to"`
}

// Create handles POST /tasks: the admin dispatch flow. The new assignment
// starts pending and the assignee is notified.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, userID, ok := sessionUserID(w, r)
	if !ok {
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		shared.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	assignedTo, err := primitive.ObjectIDFromHex(req.AssignedTo)
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "assigned_to must be a valid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	a, err := h.Assignments.Create(ctx, models.Assignment{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Priority:    status.Priority(req.Priority),
		DueDate:     req.DueDate,
		Notes:       req.Notes,
		AssignedBy:  userID,
		AssignedTo:  assignedTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			shared.Error(w, http.StatusGatewayTimeout, "storage timed out")
		default:
			// Validation errors from the store are client mistakes.
			shared.Error(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	if _, err := h.Relay.Notify(ctx, a.AssignedTo, models.NotifyTaskAssigned,
		"Nova tarefa atribuída", a.Title, &a.ID); err != nil {
		// The assignment exists; a missed notification is not worth a 500.
		h.Log.Warn("tasks: assignment notification failed",
			zap.String("assignment_id", a.ID.Hex()),
			zap.String("created_by", u.Username),
			zap.Error(err))
	}

	shared.JSON(w, http.StatusCreated, a)
}

type statusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateStatus handles PUT /tasks/{assignmentID}/status.
//
// Accepted status values are the canonical tokens pending, in_progress,
// and completed. A completion notifies the assigner.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	u, _, ok := sessionUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, err := status.Parse(req.Status)
	if err != nil {
		shared.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cur, err := h.Assignments.GetByID(ctx, id)
	if err != nil {
		h.storeError(w, "tasks: status update lookup failed", err, u.Username)
		return
	}
	if !canAccess(u, cur) {
		shared.Error(w, http.StatusNotFound, "assignment not found")
		return
	}
	wasCompleted := cur.Status == status.Completed

	a, err := h.Assignments.UpdateStatus(ctx, id, assignmentstore.StatusUpdate{
		Status: st,
		Notes:  req.Notes,
	})
	if err != nil {
		h.storeError(w, "tasks: status update failed", err, u.Username)
		return
	}

	if st == status.Completed && !wasCompleted {
		if _, err := h.Relay.Notify(ctx, a.AssignedBy, models.NotifyTaskCompleted,
			"Tarefa concluída", a.Title, &a.ID); err != nil {
			h.Log.Warn("tasks: completion notification failed",
				zap.String("assignment_id", a.ID.Hex()),
				zap.Error(err))
		}
	}

	shared.JSON(w, http.StatusOK, a)
}

type photosResponse struct {
	Photos []models.Photo `json:"photos"`
	Failed int            `json:"failed"`
}

// AttachPhotos handles POST /tasks/{assignmentID}/photos.
//
// The multipart batch is processed blob by blob; a blob that fails to
// store is counted and skipped, and the response reports both the photos
// that made it and the failure count.
func (h *Handler) AttachPhotos(w http.ResponseWriter, r *http.Request) {
	u, _, ok := sessionUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxPhotoMemory); err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		shared.Error(w, http.StatusBadRequest, "at least one photo is required")
		return
	}
	description := r.FormValue("description")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	cur, err := h.Assignments.GetByID(ctx, id)
	if err != nil {
		h.storeError(w, "tasks: photo attach lookup failed", err, u.Username)
		return
	}
	if !canAccess(u, cur) {
		shared.Error(w, http.StatusNotFound, "assignment not found")
		return
	}

	var uploads []photos.Upload
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			shared.Error(w, http.StatusBadRequest, "unreadable photo part")
			return
		}
		defer f.Close()
		uploads = append(uploads, photos.Upload{
			Content:      f,
			Size:         fh.Size,
			ContentType:  fh.Header.Get("Content-Type"),
			OriginalName: fh.Filename,
			Description:  description,
		})
	}

	attached, failed, err := h.Photos.Attach(ctx, id, uploads)
	if err != nil {
		// Only context cancellation reaches here; partial results are
		// already recorded and reported.
		shared.Error(w, http.StatusGatewayTimeout, "photo upload timed out")
		return
	}
	if attached == nil {
		attached = []models.Photo{}
	}
	shared.JSON(w, http.StatusOK, photosResponse{Photos: attached, Failed: failed})
}

// storeError maps assignment store errors onto API status codes.
func (h *Handler) storeError(w http.ResponseWriter, msg string, err error, username string) {
	switch {
	case errors.Is(err, assignmentstore.ErrNotFound):
		shared.Error(w, http.StatusNotFound, "assignment not found")
	case errors.Is(err, assignmentstore.ErrCompleted):
		shared.Error(w, http.StatusConflict, "assignment is already completed")
	case errors.Is(err, assignmentstore.ErrConflict):
		shared.Error(w, http.StatusConflict, "assignment was modified, refresh and retry")
	case errors.Is(err, context.DeadlineExceeded):
		shared.Error(w, http.StatusGatewayTimeout, "storage timed out")
	default:
		h.Log.Error(msg, zap.String("username", username), zap.Error(err))
		shared.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// canAccess reports whether the session user may see the assignment:
// its assignee, its assigner, or any admin.
func canAccess(u *auth.SessionUser, a *models.Assignment) bool {
	if strings.EqualFold(u.Role, "admin") {
		return true
	}
	return a.AssignedTo.Hex() == u.ID || a.AssignedBy.Hex() == u.ID
}

func sessionUserID(w http.ResponseWriter, r *http.Request) (*auth.SessionUser, primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		shared.Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, primitive.NilObjectID, false
	}
	return u, id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "assignmentID"))
	if err != nil {
		shared.Error(w, http.StatusBadRequest, "invalid assignment id")
		return primitive.NilObjectID, false
	}
	return id, true
}
