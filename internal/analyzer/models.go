package analyzer

import (
	"go-optical-flow/pkg/models"
)

// AnalysisResult is an alias to the shared models.FlowResult
type AnalysisResult = models.FlowResult
