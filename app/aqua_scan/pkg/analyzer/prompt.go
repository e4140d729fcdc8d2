package analyzer

import (
	"encoding/json"
	"fmt"
	"strings"

	dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"
)

const systemPrompt = `You are a water quality analysis assistant and a JSON generator.
Reply with a single JSON object only, without markdown. The object must match this JSON schema:
%s`

const instructions = `CRITICAL INSTRUCTIONS:
1. Assess safety based on WHO/EPA standards.
2. Provide a 'simpleExplanation' that is non-technical, clear, and easy to understand for someone without a science background.
3. Identify 'alerts' for specific health risks like: fluoride toxicity, bacterial suspicion, heavy metals, or high nitrates (blue baby syndrome).
4. Provide actionable 'recommendations' like 'Boil for 5 mins', 'Use carbon filter', 'Avoid completely', or 'Report to local council'.
5. Determine RiskLevel: SAFE, CAUTION, or UNSAFE.`

// buildPrompt 组装用户提示词
func buildPrompt(lang dm.Language, hasImage bool, manual *dm.DroneData) string {
	var sb strings.Builder
	sb.WriteString("Analyze this water quality sample for a user in a rural or resource-limited setting.\n")
	sb.WriteString(fmt.Sprintf("Output language: %s.\n\n", lang))

	if hasImage {
		sb.WriteString("An image of a test strip or water sample is provided.\n")
	}
	if manual != nil {
		data, _ := json.Marshal(manual)
		sb.WriteString(fmt.Sprintf("Initial drone telemetry data: %s\n", data))
	}

	sb.WriteString("\n")
	sb.WriteString(instructions)
	return sb.String()
}
