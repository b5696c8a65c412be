package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/MLServe/internal/handlers"
	"github.com/akolanti/MLServe/internal/metrics"
	"github.com/akolanti/MLServe/pkg/logger_i"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

// chain is one of the request checks, run in order until one fails
type chain func(re requestResponseStruct) requestResponseStruct

var HomeHandler = Wrap(handlers.HomeHandler)
var HealthHandler = WrapPublic(handlers.HealthHandler)
var PredictInstancesHandler = Wrap(handlers.PredictInstancesHandler)
var PredictHandler = Wrap(handlers.PredictHandler)

var GetReviewHandler = Wrap(handlers.GetReviewHandler)
var PostReviewHandler = Wrap(handlers.PostReviewHandler)

var DetectFacesHandler = Wrap(handlers.DetectFacesHandler)
var RecognizeCelebrityHandler = Wrap(handlers.RecognizeCelebrityHandler)

var GetSimilarWordsHandler = Wrap(handlers.GetSimilarWordsHandler)
var PostIngestHandler = Wrap(handlers.PostIngestHandler)
var PostBoardHandler = Wrap(handlers.PostBoardHandler)
var GetBoardHandler = Wrap(handlers.GetBoardHandler)
var PostBoardWordHandler = Wrap(handlers.PostBoardWordHandler)
var DeleteBoardWordsHandler = Wrap(handlers.DeleteBoardWordsHandler)
var PostBoardFigureHandler = Wrap(handlers.PostBoardFigureHandler)
var BoardSocketHandler = WrapPublic(handlers.BoardSocketHandler)

var GetStatusHandler = Wrap(handlers.GetStatusHandler)
var GetHistoryHandler = Wrap(handlers.GetHistoryHandler)

// Wrap runs trace injection, bearer auth and rate limiting before next
func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return wrapWith(next, injectTrace, authenticate, rateLimiter)
}

// WrapPublic skips auth. It serves health checks and the browser dashboard, which cannot send headers on a websocket.
func WrapPublic(next http.HandlerFunc) http.HandlerFunc {
	return wrapWith(next, injectTrace, rateLimiter)
}

// WrapHandler adapts an http.Handler such as the MCP transport to Wrap
func WrapHandler(next http.Handler) http.HandlerFunc {
	return Wrap(next.ServeHTTP)
}

func wrapWith(next http.HandlerFunc, steps ...chain) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK} //metrics
		re := processRequest(requestResponseStruct{req: r, writer: rec}, steps)

		if re.badRequest.isBadRequest {
			handleBadRequest(re)
		} else {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routePattern(r), strconv.Itoa(rec.Status)).Inc() //metrics
	}
}

func processRequest(re requestResponseStruct, steps []chain) requestResponseStruct {
	re.logger = logger_i.NewLogger("middleware")
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	for _, step := range steps {
		re = step(re)
		if re.badRequest.isBadRequest {
			return re
		}
	}
	return re
}
