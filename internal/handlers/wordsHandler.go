package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/akolanti/MLServe/internal/adapter"
	"github.com/akolanti/MLServe/internal/adapter/utils"
	"github.com/akolanti/MLServe/internal/api"
	"github.com/akolanti/MLServe/internal/config"
	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/akolanti/MLServe/internal/words"
	"github.com/akolanti/MLServe/internal/words/embedding"
)

// GetSimilarWordsHandler godoc
// @Summary      Most similar words
// @Description  Nearest vocabulary words by cosine similarity, the query word excluded.
// @Tags         Words
// @Produce      json
// @Param        word  query     string  true   "A single word, letters only"
// @Param        topn  query     int     false  "Number of neighbours, default 10"
// @Success      200   {object}  api.SimilarWordsResponse
// @Failure      404   {object}  api.JobResponse  "Word not in vocabulary"
// @Failure      422   {object}  api.JobResponse
// @Router       /api/words/similar [get]
func GetSimilarWordsHandler(w http.ResponseWriter, r *http.Request) {
	h := handlerInstance
	if h.cfg.Words == nil {
		writeUnavailable(w, "word embeddings")
		return
	}

	word := r.URL.Query().Get("word")
	topn := config.DefaultSimilarTopN
	if raw := r.URL.Query().Get("topn"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteErrorResponse(w, http.StatusUnprocessableEntity, "", "topn must be an integer")
			return
		}
		topn = parsed
	}

	neighbours, err := h.cfg.Words.MostSimilar(r.Context(), word, topn)
	switch {
	case errors.Is(err, words.ErrInvalidWord), errors.Is(err, words.ErrInvalidTopN):
		writeUnprocessable(w, "", err)
		return
	case errors.Is(err, embedding.ErrUnknownWord):
		WriteErrorResponse(w, http.StatusNotFound, word, err.Error())
		return
	case err != nil:
		logRH.Error("Similar words lookup failed", "traceId", traceId(r.Context()), "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, word, "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusOK, api.SimilarWordsResponse{Word: word, Neighbours: neighbours})
}

// PostBoardHandler godoc
// @Summary      Create a dashboard board
// @Description  A board is a persisted word list. Without words it starts from the sixteen starter words.
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Param        request  body      api.BoardRequest  false  "Optional custom word list"
// @Success      201      {object}  api.BoardResponse
// @Failure      422      {object}  api.JobResponse
// @Router       /boards [post]
func PostBoardHandler(w http.ResponseWriter, r *http.Request) {
	boards, ok := boardStore(w)
	if !ok {
		return
	}

	var request api.BoardRequest
	if err := decodeBody(r, &request, true); err != nil {
		writeUnprocessable(w, "", err)
		return
	}
	initial := request.Words
	if len(initial) == 0 {
		initial = handlerInstance.cfg.StarterWords
	}
	for _, word := range initial {
		if !words.IsWord(word) {
			writeUnprocessable(w, "", fmt.Errorf("%w: %q", words.ErrInvalidWord, word))
			return
		}
	}

	id := newId()
	if err := boards.InitBoard(r.Context(), id, initial); err != nil {
		logRH.Error("Could not create board", "traceId", traceId(r.Context()), "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal Server Error")
		return
	}
	current, err := boards.GetWords(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusCreated, adapter.ToBoardResponse(id, current))
}

// GetBoardHandler godoc
// @Summary      Get a board
// @Tags         Boards
// @Produce      json
// @Param        id   path      string  true  "Board ID"
// @Success      200  {object}  api.BoardResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /boards/{id} [get]
func GetBoardHandler(w http.ResponseWriter, r *http.Request) {
	boards, id, ok := existingBoard(w, r)
	if !ok {
		return
	}
	current, err := boards.GetWords(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToBoardResponse(id, current))
}

// PostBoardWordHandler godoc
// @Summary      Add a word to a board
// @Description  Words already on the board are not added twice. An empty word leaves the board unchanged.
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Board ID"
// @Param        request  body      api.AddWordRequest  true  "The word to add"
// @Success      200      {object}  api.BoardResponse
// @Failure      404      {object}  api.JobResponse
// @Failure      422      {object}  api.JobResponse
// @Router       /boards/{id}/words [post]
func PostBoardWordHandler(w http.ResponseWriter, r *http.Request) {
	boards, id, ok := existingBoard(w, r)
	if !ok {
		return
	}

	var request api.AddWordRequest
	if err := decodeBody(r, &request, false); err != nil {
		writeUnprocessable(w, id, err)
		return
	}

	var current []string
	var err error
	if request.Word == "" {
		current, err = boards.GetWords(r.Context(), id)
	} else {
		if !words.IsWord(request.Word) {
			writeUnprocessable(w, id, fmt.Errorf("%w: %q", words.ErrInvalidWord, request.Word))
			return
		}
		current, err = boards.AddWord(r.Context(), id, request.Word)
	}
	if err != nil {
		logRH.Error("Could not update board", "traceId", traceId(r.Context()), "board", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToBoardResponse(id, current))
}

// DeleteBoardWordsHandler godoc
// @Summary      Remove words from a board
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Board ID"
// @Param        request  body      api.DeleteWordsRequest  true  "The words to remove"
// @Success      200      {object}  api.BoardResponse
// @Failure      404      {object}  api.JobResponse
// @Failure      422      {object}  api.JobResponse
// @Router       /boards/{id}/words [delete]
func DeleteBoardWordsHandler(w http.ResponseWriter, r *http.Request) {
	boards, id, ok := existingBoard(w, r)
	if !ok {
		return
	}

	var request api.DeleteWordsRequest
	if err := decodeBody(r, &request, false); err != nil {
		writeUnprocessable(w, id, err)
		return
	}

	current, err := boards.DeleteWords(r.Context(), id, request.Words)
	if err != nil {
		logRH.Error("Could not update board", "traceId", traceId(r.Context()), "board", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal Server Error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToBoardResponse(id, current))
}

// PostBoardFigureHandler godoc
// @Summary      Plot a board
// @Description  Queues a t-SNE figure job for the board's current words. Subscribers of the board websocket receive the result.
// @Tags         Boards
// @Accept       json
// @Produce      json
// @Param        id       path      string             true   "Board ID"
// @Param        request  body      api.FigureRequest  false  "Similar words per word, default 30"
// @Success      202      {object}  api.InitJobResponse
// @Failure      404      {object}  api.JobResponse
// @Failure      422      {object}  api.JobResponse
// @Router       /boards/{id}/figure [post]
func PostBoardFigureHandler(w http.ResponseWriter, r *http.Request) {
	boards, id, ok := existingBoard(w, r)
	if !ok {
		return
	}
	if handlerInstance.cfg.Words == nil {
		writeUnavailable(w, "word embeddings")
		return
	}

	request := api.FigureRequest{TopN: config.DefaultTopN}
	if err := decodeBody(r, &request, true); err != nil {
		writeUnprocessable(w, id, err)
		return
	}
	if request.TopN < 1 || request.TopN > config.MaxTopN {
		writeUnprocessable(w, id, fmt.Errorf("%w: topn must be between 1 and %d", words.ErrInvalidTopN, config.MaxTopN))
		return
	}

	current, err := boards.GetWords(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal Server Error")
		return
	}

	newJob := newFigureJob(traceId(r.Context()), id, current, request.TopN)
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}

// BoardSocketHandler upgrades to a websocket that receives every finished figure of the board
func BoardSocketHandler(w http.ResponseWriter, r *http.Request) {
	if handlerInstance.cfg.Subscriber == nil {
		writeUnavailable(w, "dashboard")
		return
	}
	_, id, ok := existingBoard(w, r)
	if !ok {
		return
	}
	handlerInstance.cfg.Subscriber.ServeBoard(w, r, id)
}

func boardStore(w http.ResponseWriter) (jobModel.BoardStore, bool) {
	service := handlerInstance.cfg.JobService
	if service == nil || service.BoardStore == nil {
		writeUnavailable(w, "board store")
		return nil, false
	}
	return service.BoardStore, true
}

func existingBoard(w http.ResponseWriter, r *http.Request) (jobModel.BoardStore, string, bool) {
	boards, ok := boardStore(w)
	if !ok {
		return nil, "", false
	}
	id := utils.GetChiURLParam(r, "id")
	if id == "" || !boards.ValidateBoardId(r.Context(), id) {
		WriteErrorResponse(w, http.StatusNotFound, id, "Board not found")
		return nil, "", false
	}
	return boards, id, true
}
