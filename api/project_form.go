package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/rpupo63/portfolio-admin-backend/errs"
	"github.com/rpupo63/portfolio-admin-backend/services"
)

const defaultMaxUploadBytes int64 = 8 << 20

// decodeProjectForm reads a multipart or urlencoded project form. Validation
// happens in the service; unparseable ids become 0, which never exists.
func decodeProjectForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (services.ProjectInput, error) {
	var in services.ProjectInput

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	switch mediaType {
	case "multipart/form-data":
		err = r.ParseMultipartForm(maxBytes)
	case "application/x-www-form-urlencoded":
		err = r.ParseForm()
	default:
		return in, errs.NewMalformedPayloadError("form", errors.New("unsupported content type "+mediaType))
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return in, errs.NewMaxBodySizeExceededError(maxBytes)
		}
		return in, errs.NewMalformedPayloadError("form", err)
	}

	in.Name = r.PostFormValue("name")
	in.Description = r.PostFormValue("description")
	in.ProjectURL = r.PostFormValue("project_url")

	if raw := strings.TrimSpace(r.PostFormValue("type_id")); raw != "" {
		typeID := parseID(raw)
		in.TypeID = &typeID
	}

	for _, raw := range technologyValues(r) {
		in.TechnologyIDs = append(in.TechnologyIDs, parseID(raw))
	}

	if r.MultipartForm != nil {
		in.Image = readUpload(r, "image_url")
	}

	return in, nil
}

// technologyValues accepts both technologies and technologies[] keys.
func technologyValues(r *http.Request) []string {
	var values []string
	for _, key := range []string{"technologies", "technologies[]"} {
		for _, v := range r.PostForm[key] {
			if strings.TrimSpace(v) != "" {
				values = append(values, v)
			}
		}
	}
	return values
}

func parseID(raw string) uint {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil {
		return 0
	}
	return uint(id)
}

// readUpload returns the file sent in field, or nil when none was sent. A
// file that cannot be read yields an empty upload so validation reports it.
func readUpload(r *http.Request, field string) *services.ImageUpload {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		return &services.ImageUpload{}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return &services.ImageUpload{Filename: header.Filename}
	}
	return &services.ImageUpload{Filename: header.Filename, Data: data}
}
