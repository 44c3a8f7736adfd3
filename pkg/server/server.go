package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/pkg/ai"
	"github.com/reviewdeck/reviewdeck/pkg/api"
	apitype "github.com/reviewdeck/reviewdeck/pkg/apis/reviews/v1"
	"github.com/reviewdeck/reviewdeck/pkg/dataloader/reviewloader"
	"github.com/reviewdeck/reviewdeck/pkg/db"
	"github.com/reviewdeck/reviewdeck/pkg/db/query"
	"github.com/reviewdeck/reviewdeck/pkg/html"
	"github.com/reviewdeck/reviewdeck/pkg/nlp"
	"github.com/reviewdeck/reviewdeck/pkg/util"
)

const maxCollectHowMany = 1000

var storedReviewsMetric = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "reviewdeck_stored_reviews",
	Help: "Number of stored reviews per app and country, refreshed on collection.",
}, []string{"app_id", "country"})

type loaderFactory func(dbc *db.DB, appID, country string, howMany int, source string) *reviewloader.ReviewLoader

type Server struct {
	listenAddr  string
	dbc         *db.DB
	classifier  nlp.SentimentClassifier
	recommender *ai.Recommender
	newLoader   loaderFactory
	httpServer  *http.Server
}

func New(listenAddr string, dbc *db.DB, classifier nlp.SentimentClassifier, recommender *ai.Recommender) *Server {
	return &Server{
		listenAddr:  listenAddr,
		dbc:         dbc,
		classifier:  classifier,
		recommender: recommender,
		newLoader:   reviewloader.New,
	}
}

func (s *Server) collect(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		api.RespondWithJSON(http.StatusMethodNotAllowed, w, map[string]interface{}{
			"code":    http.StatusMethodNotAllowed,
			"message": "collect requires POST",
		})
		return
	}

	// Absent body fields take the documented defaults; only app_id has
	// no usable default.
	body := apitype.CollectRequest{
		Country: "us",
		HowMany: 100,
		Source:  "auto",
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		api.RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "could not decode request body: " + err.Error(),
		})
		return
	}
	if body.AppID == "" {
		api.RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "app_id is required",
		})
		return
	}
	if body.Country == "" {
		// Only reachable with an explicit empty string in the body.
		api.RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "country must not be empty",
		})
		return
	}
	if body.HowMany < 1 || body.HowMany > maxCollectHowMany {
		api.RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": fmt.Sprintf("how_many must be between 1 and %d", maxCollectHowMany),
		})
		return
	}

	loader := s.newLoader(s.dbc, body.AppID, body.Country, body.HowMany, body.Source)
	inserted, netNew, err := loader.Collect()
	if err != nil {
		api.RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not collect reviews: " + err.Error(),
		})
		return
	}
	for _, collectErr := range loader.Errors() {
		log.WithError(collectErr).WithFields(log.Fields{
			"app":     body.AppID,
			"country": body.Country,
		}).Warn("non-fatal error during review collection")
	}

	s.refreshStoredReviewsMetric(body.AppID, body.Country)
	api.RespondWithJSON(http.StatusOK, w, apitype.CollectResponse{
		Status:     "ok",
		Inserted:   inserted,
		NewRecords: netNew,
	})
}

func (s *Server) refreshStoredReviewsMetric(appID, country string) {
	count, err := query.ReviewCount(s.dbc, appID, country)
	if err != nil {
		log.WithError(err).Warn("could not refresh stored review metric")
		return
	}
	storedReviewsMetric.WithLabelValues(appID, country).Set(float64(count))
}

func (s *Server) jsonReviews(w http.ResponseWriter, req *http.Request) {
	api.PrintReviews(w, req, s.dbc)
}

func (s *Server) jsonMetrics(w http.ResponseWriter, req *http.Request) {
	api.PrintMetrics(w, req, s.dbc)
}

func (s *Server) jsonInsights(w http.ResponseWriter, req *http.Request) {
	api.PrintInsights(w, req, s.dbc, s.classifier, s.recommender)
}

func (s *Server) downloadReviews(w http.ResponseWriter, req *http.Request) {
	api.DownloadReviews(w, req, s.dbc)
}

func (s *Server) htmlReport(w http.ResponseWriter, req *http.Request) {
	appID := req.URL.Query().Get("app_id")
	country := req.URL.Query().Get("country")
	if appID == "" || country == "" {
		api.RespondWithJSON(http.StatusBadRequest, w, map[string]interface{}{
			"code":    http.StatusBadRequest,
			"message": "app_id and country are required",
		})
		return
	}

	metrics, err := api.ComputeMetrics(s.dbc, appID, country)
	if err != nil {
		api.RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not compute metrics: " + err.Error(),
		})
		return
	}
	insights, err := api.ComputeInsights(req.Context(), s.dbc, appID, country, s.classifier, s.recommender)
	if err != nil {
		api.RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not compute insights: " + err.Error(),
		})
		return
	}

	page, err := html.RenderReport(metrics, insights)
	if err != nil {
		api.RespondWithJSON(http.StatusInternalServerError, w, map[string]interface{}{
			"code":    http.StatusInternalServerError,
			"message": "Could not render report: " + err.Error(),
		})
		return
	}

	if saveLocal, _ := strconv.ParseBool(req.URL.Query().Get("save_local")); saveLocal {
		filename := fmt.Sprintf("report_%s_%s.html", appID, country)
		if err := util.WriteFileAtomic(filename, page); err != nil {
			log.WithError(err).Warn("could not save local copy of report")
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report_%s_%s.html"`, appID, country))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(page); err != nil {
		log.WithError(err).Error("could not write report")
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	if err := s.dbc.Ping(); err != nil {
		api.RespondWithJSON(http.StatusServiceUnavailable, w, map[string]string{"status": "unavailable"})
		return
	}
	api.RespondWithJSON(http.StatusOK, w, map[string]string{"status": "ok"})
}

// NewServeMux wires the route table. Split out of Serve so tests can
// drive the handlers through httptest without binding a listener.
func (s *Server) NewServeMux() *http.ServeMux {
	// Private ServeMux to keep tests off http.DefaultServeMux.
	serveMux := http.NewServeMux()
	serveMux.HandleFunc("/api/collect", s.collect)
	serveMux.HandleFunc("/api/reviews/download", s.downloadReviews)
	serveMux.HandleFunc("/api/reviews", s.jsonReviews)
	serveMux.HandleFunc("/api/metrics", s.jsonMetrics)
	serveMux.HandleFunc("/api/insights", s.jsonInsights)
	serveMux.HandleFunc("/api/report", s.htmlReport)
	serveMux.HandleFunc("/healthz", s.healthz)
	return serveMux
}

func (s *Server) Serve() {
	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: s.NewServeMux(),
	}

	log.Infof("Serving review analytics on %s", s.listenAddr)

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Fatal("server exited")
	}
}

func (s *Server) GetHTTPServer() *http.Server {
	return s.httpServer
}
