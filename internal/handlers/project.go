package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/crowdfund/apiserver/internal/services"
	"github.com/crowdfund/apiserver/internal/store"
	"github.com/crowdfund/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 32 << 20
	formFieldTitle     = "title"
	formFieldContent   = "content"
	formFieldImagePath = "imagePath"
	formFieldImage     = "image"
)

// ProjectHandler provides HTTP handlers for campaign projects.
type ProjectHandler struct {
	projectService *services.ProjectService
	uploadService  *services.UploadService
}

// NewProjectHandler constructs a handler with the provided services.
func NewProjectHandler(projectService *services.ProjectService, uploadService *services.UploadService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		uploadService:  uploadService,
	}
}

// ProjectRouter registers project routes on the given router. The
// auth middleware gates every mutating route; the read routes stay
// open.
func ProjectRouter(
	r chi.Router,
	projectService *services.ProjectService,
	uploadService *services.UploadService,
	authMiddleware func(http.Handler) http.Handler,
) {
	handler := NewProjectHandler(projectService, uploadService)

	r.Get("/getProject", handler.ListProjects)
	r.With(authMiddleware).Post("/postProject", handler.CreateProject)
	r.Route("/updateProject/{projectID}", func(r chi.Router) {
		r.Get("/", handler.GetProject)
		r.With(authMiddleware).Put("/", handler.UpdateProject)
	})
	r.With(authMiddleware).Delete("/deleteProject/{projectID}", handler.DeleteProject)
}

func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	pageSize := parseQueryInt(r, "pagesize")
	page := parseQueryInt(r, "page")

	posts, total, err := h.projectService.List(r.Context(), pageSize, page)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Fetching Projects Failed!")
		return
	}

	writeJSON(w, http.StatusOK, ProjectListResponse{
		Message:  "Project fetched Successfully",
		Posts:    posts,
		MaxPosts: total,
	})
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := parseProjectID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Project not Found!")
		return
	}

	project, err := h.projectService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// 401 rather than 404 mirrors the original surface.
			writeError(w, http.StatusUnauthorized, "Project not Found!")
			return
		}
		writeError(w, http.StatusInternalServerError, "Fetching Project Failed!")
		return
	}

	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusInternalServerError, "Creating a Projects Failed!")
		return
	}

	imagePath, err := h.saveUpload(r, true)
	if err != nil {
		if errors.Is(err, services.ErrInvalidMimeType) {
			writeError(w, http.StatusInternalServerError, "invalid mime type")
			return
		}
		writeError(w, http.StatusInternalServerError, "Creating a Projects Failed!")
		return
	}

	created, err := h.projectService.Create(
		r.Context(),
		identity.UserID,
		strings.TrimSpace(r.FormValue(formFieldTitle)),
		strings.TrimSpace(r.FormValue(formFieldContent)),
		imagePath,
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Creating a Projects Failed!")
		return
	}

	writeJSON(w, http.StatusCreated, ProjectCreateResponse{
		Message: "Project Added Successfully!",
		Post: ProjectPayload{
			ID:        created.ID,
			Title:     created.Title,
			Content:   created.Content,
			ImagePath: created.ImagePath,
		},
	})
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	id, err := parseProjectID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not Authorized!")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusInternalServerError, "Couldn't Update Project!")
		return
	}

	// A freshly uploaded file replaces the image path; otherwise the
	// path submitted with the form (the existing one) is kept.
	imagePath := strings.TrimSpace(r.FormValue(formFieldImagePath))
	if uploaded, err := h.saveUpload(r, false); err != nil {
		if errors.Is(err, services.ErrInvalidMimeType) {
			writeError(w, http.StatusInternalServerError, "invalid mime type")
			return
		}
		writeError(w, http.StatusInternalServerError, "Couldn't Update Project!")
		return
	} else if uploaded != "" {
		imagePath = uploaded
	}

	err = h.projectService.Update(
		r.Context(),
		id,
		identity.UserID,
		strings.TrimSpace(r.FormValue(formFieldTitle)),
		strings.TrimSpace(r.FormValue(formFieldContent)),
		imagePath,
	)
	if err != nil {
		if errors.Is(err, store.ErrNotOwned) {
			writeError(w, http.StatusUnauthorized, "Not Authorized!")
			return
		}
		writeError(w, http.StatusInternalServerError, "Couldn't Update Project!")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Update successfull!"})
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing token")
		return
	}

	id, err := parseProjectID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not Authorized!")
		return
	}

	if err := h.projectService.Delete(r.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, store.ErrNotOwned) {
			writeError(w, http.StatusUnauthorized, "Not Authorized!")
			return
		}
		writeError(w, http.StatusInternalServerError, "Deletion Failed!")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Deletion successfull!"})
}

// ProjectListResponse is the paginated list response payload.
type ProjectListResponse struct {
	Message  string          `json:"message"`
	Posts    []types.Project `json:"posts"`
	MaxPosts int             `json:"maxPosts"`
}

// ProjectCreateResponse is the create response payload. The owner
// reference is deliberately omitted.
type ProjectCreateResponse struct {
	Message string         `json:"message"`
	Post    ProjectPayload `json:"post"`
}

type ProjectPayload struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImagePath string `json:"imagePath"`
}

// saveUpload stores the uploaded image, if any, and returns its
// public URL. With required set, a missing file is an error; on
// update the file is optional and an empty URL means "no new image".
func (h *ProjectHandler) saveUpload(r *http.Request, required bool) (string, error) {
	header, err := imageFileHeader(r.MultipartForm)
	if err != nil {
		if !required && errors.Is(err, errNoImageFile) {
			return "", nil
		}
		return "", err
	}

	file, err := header.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	return h.uploadService.Save(r.Context(), header.Filename, contentType, file, header.Size)
}

var errNoImageFile = errors.New("image file is required")

func imageFileHeader(form *multipart.Form) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, errNoImageFile
	}
	files := form.File[formFieldImage]
	if len(files) == 0 {
		return nil, errNoImageFile
	}
	if len(files) > 1 {
		return nil, errors.New("only one image file is allowed")
	}
	return files[0], nil
}

func parseProjectID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "projectID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid project id")
	}
	return id, nil
}

func parseQueryInt(r *http.Request, key string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
