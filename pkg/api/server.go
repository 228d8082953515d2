// HTTP surface for the catalog. Thin plumbing over pixstore.Service: routing,
// request decoding, and mapping of the core error kinds to status codes.
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/pixstore/pixstore/pkg/pixstore"
)

type Server struct {
	svc  *pixstore.Service
	log  logrus.FieldLogger
	Addr net.Addr
	done chan bool
}

func NewServer(svc *pixstore.Service, logger logrus.FieldLogger) *Server {
	return &Server{
		svc:  svc,
		log:  logger,
		done: make(chan bool),
	}
}

// Start listens on addrString and serves in the background. Use Wait to block
// until the server exits.
func (s *Server) Start(addrString string) error {
	listener, err := net.Listen("tcp", addrString)
	if err != nil {
		return err
	}
	s.Addr = listener.Addr()
	s.log.Infof("listening at %v", s.Addr)

	server := &http.Server{Handler: s.Router()}
	go func() {
		server.Serve(listener)
		s.done <- true
	}()
	return nil
}

func (s *Server) Wait() {
	<-s.done
}

func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Post("/images", func(w http.ResponseWriter, r *http.Request) {
		body, err := ioutil.ReadAll(r.Body)
		if err != nil {
			s.renderError(w, r, errCouldNotRead(err))
			return
		}
		req := pixstore.UploadRequest{}
		if err := json.Unmarshal(body, &req); err != nil {
			s.renderError(w, r, &errResponse{
				HTTPStatusCode: 400,
				ErrorType:      "ValidationError",
				ErrorMessage:   "request body is not valid JSON: " + err.Error(),
			})
			return
		}

		rec, err := s.svc.Upload(r.Context(), &req)
		if err != nil {
			s.renderError(w, r, mapError(err))
			return
		}

		render.Status(r, 201)
		render.JSON(w, r, &uploadResponse{
			Message: "Image uploaded successfully",
			ImageID: rec.ImageID,
			Record:  rec,
		})
	})

	r.Get("/images", func(w http.ResponseWriter, r *http.Request) {
		filter := pixstore.ListFilter{
			OwnerID: r.URL.Query().Get("owner_id"),
			Tag:     r.URL.Query().Get("tag"),
		}
		recs, err := s.svc.List(r.Context(), filter)
		if err != nil {
			s.renderError(w, r, mapError(err))
			return
		}
		render.JSON(w, r, &listResponse{Count: len(recs), Images: recs})
	})

	r.Get("/images/{imageID}", func(w http.ResponseWriter, r *http.Request) {
		imageID := chi.URLParam(r, "imageID")
		wantBytes := r.URL.Query().Get("download") == "true"
		wantURL := r.URL.Query().Get("url") == "true"

		res, err := s.svc.Retrieve(r.Context(), imageID, wantBytes, wantURL)
		if err != nil {
			s.renderError(w, r, mapError(err))
			return
		}

		resp := &getResponse{ImageID: imageID, Record: res.Record, URL: res.URL}
		if wantBytes {
			resp.ImageData = base64.StdEncoding.EncodeToString(res.Data)
			resp.ContentType = res.Record.ContentType
		}
		render.JSON(w, r, resp)
	})

	r.Delete("/images/{imageID}", func(w http.ResponseWriter, r *http.Request) {
		imageID := chi.URLParam(r, "imageID")
		if err := s.svc.Delete(r.Context(), imageID); err != nil {
			s.renderError(w, r, mapError(err))
			return
		}
		render.JSON(w, r, &deleteResponse{
			Message: "Image deleted successfully",
			ImageID: imageID,
		})
	})

	return r
}

type uploadResponse struct {
	Message string                `json:"message"`
	ImageID string                `json:"image_id"`
	Record  *pixstore.ImageRecord `json:"record"`
}

type listResponse struct {
	Count  int                    `json:"count"`
	Images []pixstore.ImageRecord `json:"images"`
}

type getResponse struct {
	ImageID     string                `json:"image_id"`
	Record      *pixstore.ImageRecord `json:"record"`
	ImageData   string                `json:"image_data,omitempty"`
	ContentType string                `json:"content_type,omitempty"`
	URL         string                `json:"url,omitempty"`
}

type deleteResponse struct {
	Message string `json:"message"`
	ImageID string `json:"image_id"`
}

type errResponse struct {
	HTTPStatusCode int    `json:"-"`
	ErrorType      string `json:"errorType,omitempty"`
	ErrorMessage   string `json:"errorMessage"`
}

func (e *errResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errCouldNotRead(err error) *errResponse {
	return &errResponse{
		HTTPStatusCode: 400,
		ErrorType:      "ValidationError",
		ErrorMessage:   "could not read request body: " + err.Error(),
	}
}

// mapError translates core error kinds into caller-visible status codes. The
// message is the human-readable error text only; store-specific detail stays
// in the logs.
func mapError(err error) *errResponse {
	switch {
	case errors.Is(err, pixstore.ErrValidation):
		return &errResponse{HTTPStatusCode: 400, ErrorType: "ValidationError", ErrorMessage: err.Error()}
	case errors.Is(err, pixstore.ErrNotFound):
		return &errResponse{HTTPStatusCode: 404, ErrorType: "NotFound", ErrorMessage: err.Error()}
	case errors.Is(err, pixstore.ErrBlobMissing):
		return &errResponse{HTTPStatusCode: 502, ErrorType: "BlobMissing", ErrorMessage: err.Error()}
	case errors.Is(err, pixstore.ErrOrphanedBlob):
		return &errResponse{HTTPStatusCode: 502, ErrorType: "OrphanedBlob", ErrorMessage: err.Error()}
	case errors.Is(err, pixstore.ErrPartialDelete):
		return &errResponse{HTTPStatusCode: 502, ErrorType: "PartialDelete", ErrorMessage: err.Error()}
	case errors.Is(err, pixstore.ErrStoreUnavailable):
		return &errResponse{HTTPStatusCode: 503, ErrorType: "StoreUnavailable", ErrorMessage: err.Error()}
	}
	return &errResponse{HTTPStatusCode: 500, ErrorType: "InternalError", ErrorMessage: err.Error()}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, e *errResponse) {
	if e.HTTPStatusCode >= 500 {
		s.log.Errorf("%s %s -> %d %s: %s", r.Method, r.URL.Path, e.HTTPStatusCode, e.ErrorType, e.ErrorMessage)
	}
	render.Render(w, r, e)
}
