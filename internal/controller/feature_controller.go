package controller

import (
	"errors"
	"net/http"

	"langid/internal/service/feature"
	"langid/internal/service/vocabulary"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxSourceBytes bounds request bodies; the tokenizer itself stops after
// its byte limit
const MaxSourceBytes = 4 << 20

type FeatureController struct {
	featureService *feature.FeatureService
	logger         *zap.Logger
}

func NewFeatureController(featureService *feature.FeatureService, logger *zap.Logger) *FeatureController {
	return &FeatureController{
		featureService: featureService,
		logger:         logger,
	}
}

type TokenizeRequest struct {
	Source string `json:"source"`
}

type FeaturesRequest struct {
	Source   string `json:"source"`
	Language string `json:"language,omitempty"`
	Filename string `json:"filename,omitempty"`
}

type VocabularyResponse struct {
	Name  string   `json:"name"`
	Words []string `json:"words"`
	Size  int      `json:"size"`
}

func (fc *FeatureController) Tokenize(c *gin.Context) {
	var request TokenizeRequest
	if !fc.bind(c, &request) {
		return
	}

	result, err := fc.featureService.Tokenize(c.Request.Context(), []byte(request.Source))
	if err != nil {
		fc.logger.Error("Failed to tokenize source", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to tokenize source",
			"details": err.Error(),
		})
		return
	}

	fc.logger.Debug("Tokenized source",
		zap.Int("bytes", len(request.Source)),
		zap.Int("tokens", result.Count))
	c.JSON(http.StatusOK, result)
}

func (fc *FeatureController) Features(c *gin.Context) {
	var request FeaturesRequest
	if !fc.bind(c, &request) {
		return
	}

	result, err := fc.featureService.Features(c.Request.Context(), []byte(request.Source), request.Language)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, feature.ErrNoVocabulary) {
			status = http.StatusServiceUnavailable
		}
		fc.logger.Error("Failed to extract features", zap.Error(err))
		c.JSON(status, gin.H{
			"error":   "Failed to extract features",
			"details": err.Error(),
		})
		return
	}

	if request.Filename != "" {
		result.Sample.Extension = vocabulary.ExtensionOf(request.Filename)
	}

	c.JSON(http.StatusOK, result)
}

func (fc *FeatureController) Vocabulary(c *gin.Context) {
	v, name, err := fc.featureService.Vocabulary()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Vocabulary not available",
			"details": err.Error(),
		})
		return
	}

	words, err := v.Words()
	if err != nil {
		fc.logger.Error("Failed to read vocabulary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read vocabulary",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, VocabularyResponse{
		Name:  name,
		Words: words,
		Size:  len(words),
	})
}

func (fc *FeatureController) bind(c *gin.Context, request any) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxSourceBytes)
	if err := c.ShouldBindJSON(request); err != nil {
		fc.logger.Error("Invalid request payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request payload",
			"details": err.Error(),
		})
		return false
	}
	return true
}
