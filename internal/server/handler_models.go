package server

import (
	"net/http"

	"nexus/internal/core"

	"github.com/gin-gonic/gin"
)

type testConnectionBody struct {
	Message string `json:"message"`
}

func (s *Server) listModels(c *gin.Context) {
	state, err := s.registry.List(c.Request.Context())
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (s *Server) addModel(c *gin.Context) {
	var in core.ModelInput
	if err := bindJSON(c, &in, false); err != nil {
		s.respondWithError(c, err)
		return
	}
	model, err := s.registry.Add(c.Request.Context(), in)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

func (s *Server) updateModel(c *gin.Context) {
	var patch core.ModelPatch
	if err := bindStrictJSON(c, &patch); err != nil {
		s.respondWithError(c, err)
		return
	}
	model, err := s.registry.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

func (s *Server) removeModel(c *gin.Context) {
	if err := s.registry.Remove(c.Request.Context(), c.Param("id")); err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) setActiveModel(c *gin.Context) {
	model, err := s.registry.SetActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "activeModelId": model.ID, "model": model})
}

// testModelConnection always answers 200 for a known model; the outcome is
// in the body so the UI can render it inline.
func (s *Server) testModelConnection(c *gin.Context) {
	var body testConnectionBody
	if err := bindJSON(c, &body, true); err != nil {
		s.respondWithError(c, err)
		return
	}
	result, err := s.registry.TestConnection(c.Request.Context(), c.Param("id"), body.Message)
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listOllamaModels(c *gin.Context) {
	models, err := s.registry.ListOllamaModels(c.Request.Context())
	if err != nil {
		s.respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}
