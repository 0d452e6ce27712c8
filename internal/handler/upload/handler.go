package upload

import (
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pmorlen/chatgate/pkg/utils"
)

// maxUploadBytes caps one multipart request.
const maxUploadBytes = 32 << 20

// allowedExtensions lists the document types the backend can ingest.
var allowedExtensions = map[string]struct{}{
	".txt":  {},
	".pdf":  {},
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
}

// Handler receives document uploads for backend ingestion. Each request
// lands its files in a fresh timestamped directory under the root.
type Handler struct {
	root string
}

// New creates the upload handler writing beneath the given root.
func New(root string) *Handler {
	return &Handler{root: root}
}

// RegisterRoutes mounts the upload endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/rag_upload", h.handleUpload)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	files := r.MultipartForm.File["rag_files"]
	if len(files) == 0 {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]string{"message": "no uploaded file"})
		return
	}

	accepted := make([]*multipart.FileHeader, 0, len(files))
	names := make([]string, 0, len(files))
	for _, header := range files {
		name := sanitizeFilename(header.Filename)
		if name == "" || !extensionAllowed(name) {
			continue
		}
		accepted = append(accepted, header)
		names = append(names, name)
	}

	if len(accepted) == 0 {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]string{"message": "no uploaded file"})
		return
	}

	dir := filepath.Join(h.root, time.Now().Format("20060102-150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[upload] failed to create %s: %v", dir, err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	for i, header := range accepted {
		if err := saveFile(header, filepath.Join(dir, names[i])); err != nil {
			log.Printf("[upload] failed to save %s: %v", names[i], err)
			utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
			return
		}
	}

	log.Printf("[upload] stored %d file(s) under %s", len(accepted), dir)
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "File uploaded successfully"})
}

func extensionAllowed(name string) bool {
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// sanitizeFilename strips any path components from a client-supplied
// filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == string(filepath.Separator) {
		return ""
	}
	return name
}

func saveFile(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}
