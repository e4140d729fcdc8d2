package i18n

import dm "github.com/iWorld-y/aqua_scan/app/aqua_scan/pkg/model"

// Strings 界面文案
type Strings struct {
	Title         string `json:"title"`
	Subtitle      string `json:"subtitle"`
	NewScan       string `json:"newScan"`
	Dashboard     string `json:"dashboard"`
	History       string `json:"history"`
	Map           string `json:"map"`
	OfflineTip    string `json:"offlineTip"`
	AnalysisError string `json:"analysisError"`
	InvalidInput  string `json:"invalidInput"`
	Analyzing     string `json:"analyzing"`
	LanguageName  string `json:"languageName"`
}

var translations = map[dm.Language]Strings{
	dm.English: {
		Title:         "Water Diagnostics",
		Subtitle:      "Smart assessment for safe drinking water.",
		NewScan:       "New Analysis",
		Dashboard:     "Results",
		History:       "Local Logs",
		Map:           "Geo Insights",
		OfflineTip:    "Works offline with saved logs",
		AnalysisError: "AI Analysis failed. Check internet connection.",
		InvalidInput:  "Please provide a photo or sensor readings.",
		Analyzing:     "Analyzing sample…",
		LanguageName:  "English",
	},
	dm.Spanish: {
		Title:         "Diagnóstico de Agua",
		Subtitle:      "Evaluación inteligente para agua potable segura.",
		NewScan:       "Nuevo Análisis",
		Dashboard:     "Resultados",
		History:       "Historial",
		Map:           "Perspectivas Geo",
		OfflineTip:    "Funciona sin conexión con registros",
		AnalysisError: "El análisis de IA falló. Verifique la conexión a internet.",
		InvalidInput:  "Proporcione una foto o lecturas del sensor.",
		Analyzing:     "Analizando muestra…",
		LanguageName:  "Español",
	},
	dm.Hindi: {
		Title:         "जल निदान",
		Subtitle:      "सुरक्षित पेयजल के लिए स्मार्ट मूल्यांकन।",
		NewScan:       "नया विश्लेषण",
		Dashboard:     "परिणाम",
		History:       "इतिहास",
		Map:           "भौगोलिक जानकारी",
		OfflineTip:    "सहेजे गए लॉग के साथ ऑफ़लाइन काम करता है",
		AnalysisError: "एआई विश्लेषण विफल रहा। इंटरनेट कनेक्शन जांचें।",
		InvalidInput:  "कृपया एक फ़ोटो या सेंसर रीडिंग दें।",
		Analyzing:     "नमूने का विश्लेषण हो रहा है…",
		LanguageName:  "हिन्दी",
	},
}

// For 返回指定语言的文案，未知语言回退到英语
func For(lang dm.Language) Strings {
	if s, ok := translations[lang]; ok {
		return s
	}
	return translations[dm.English]
}
