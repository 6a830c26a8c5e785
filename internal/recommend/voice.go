// Shelfwise - Multi-Tenant Catalog Similarity and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package recommend

// VoiceType selects the recommendation flavour of a voice response.
type VoiceType string

const (
	VoiceSimilar        VoiceType = "similar"
	VoiceBoughtTogether VoiceType = "bought_together"
	VoicePersonalized   VoiceType = "personalized"
)

// Supported languages.
const (
	LanguageFrench  = "fr"
	LanguageEnglish = "en"
	LanguageSpanish = "es"
	LanguageArabic  = "ar"
	LanguageDarija  = "ary"
)

const (
	carouselAction   = "show_carousel"
	defaultVoiceType = VoiceSimilar
)

var voiceIntros = map[string]map[VoiceType]string{
	LanguageFrench: {
		VoiceSimilar:        "Voici des produits similaires que vous pourriez aimer :",
		VoiceBoughtTogether: "Les clients achètent souvent aussi :",
		VoicePersonalized:   "Basé sur vos préférences, je vous recommande :",
	},
	LanguageEnglish: {
		VoiceSimilar:        "Here are similar products you might like:",
		VoiceBoughtTogether: "Customers often also buy:",
		VoicePersonalized:   "Based on your preferences, I recommend:",
	},
	LanguageSpanish: {
		VoiceSimilar:        "Aquí hay productos similares que podrían gustarte:",
		VoiceBoughtTogether: "Los clientes también suelen comprar:",
		VoicePersonalized:   "Según tus preferencias, te recomiendo:",
	},
	LanguageArabic: {
		VoiceSimilar:        "إليك منتجات مشابهة قد تعجبك:",
		VoiceBoughtTogether: "غالبًا ما يشتري العملاء أيضًا:",
		VoicePersonalized:   "بناءً على تفضيلاتك، أوصي بـ:",
	},
	LanguageDarija: {
		VoiceSimilar:        "ها شي منتوجات شابهين لي يمكن يعجبوك:",
		VoiceBoughtTogether: "الزبناء كيشريو غالبا حتا:",
		VoicePersonalized:   "على حساب شنو كيعجبك، كنقترح عليك:",
	},
}

var voiceApologies = map[string]string{
	LanguageFrench:  "Je n'ai pas de recommandations spécifiques pour le moment. Puis-je vous aider autrement ?",
	LanguageEnglish: "I don't have specific recommendations right now. Can I help you with something else?",
	LanguageSpanish: "No tengo recomendaciones específicas en este momento. ¿Puedo ayudarte con algo más?",
	LanguageArabic:  "ليس لدي توصيات محددة حاليًا. هل يمكنني مساعدتك في شيء آخر؟",
	LanguageDarija:  "ما عنديش توصيات دابا. واش نقدر نعاونك فشي حاجة خرا?",
}

// SupportedLanguage reports whether voice texts exist for lang.
func SupportedLanguage(lang string) bool {
	_, ok := voiceIntros[lang]
	return ok
}

// VoiceRequest asks for a spoken recommendation.
type VoiceRequest struct {
	TenantID string    `json:"-"`
	Type     VoiceType `json:"type,omitempty" validate:"omitempty,oneof=similar bought_together personalized"`

	// ProductID drives similar and single-product bought_together requests.
	ProductID string `json:"product_id,omitempty" validate:"max=256"`

	// ProductIDs is a cart; when set, bought_together uses cart recommendations.
	ProductIDs []string `json:"product_ids,omitempty" validate:"max=100"`

	UserID            string   `json:"user_id,omitempty" validate:"max=256"`
	Profile           Profile  `json:"profile"`
	RecentlyViewed    []string `json:"recently_viewed,omitempty" validate:"max=100"`
	RecentlyPurchased []string `json:"recently_purchased,omitempty" validate:"max=100"`
	Language          string   `json:"language,omitempty" validate:"max=8"`
}

// VoiceResponse is the payload read out by a voice assistant.
type VoiceResponse struct {
	Text            string                `json:"text"`
	Recommendations []VoiceRecommendation `json:"recommendations"`
	VoiceWidget     *VoiceWidget          `json:"voiceWidget"`
}

// VoiceRecommendation is one numbered item of a voice response.
type VoiceRecommendation struct {
	Position  int     `json:"position"`
	ProductID string  `json:"productId"`
	Reason    Reason  `json:"reason"`
	Score     float64 `json:"score"`
}

// VoiceWidget tells the widget which products to display.
type VoiceWidget struct {
	Action string   `json:"action"`
	Items  []string `json:"items"`
}

// resolveLanguage picks the first supported language of the request, the
// profile and the fallback.
func resolveLanguage(requested, profile, fallback string) string {
	for _, lang := range []string{requested, profile} {
		if SupportedLanguage(lang) {
			return lang
		}
	}
	if SupportedLanguage(fallback) {
		return fallback
	}
	return LanguageFrench
}

// FormatVoice renders candidates as a voice response in lang. Unknown
// languages fall back to French.
func FormatVoice(candidates []Candidate, kind VoiceType, lang string) *VoiceResponse {
	if !SupportedLanguage(lang) {
		lang = LanguageFrench
	}
	if len(candidates) == 0 {
		return &VoiceResponse{
			Text:            voiceApologies[lang],
			Recommendations: []VoiceRecommendation{},
		}
	}

	intro, ok := voiceIntros[lang][kind]
	if !ok {
		intro = voiceIntros[lang][defaultVoiceType]
	}

	resp := &VoiceResponse{
		Text:            intro,
		Recommendations: make([]VoiceRecommendation, len(candidates)),
		VoiceWidget: &VoiceWidget{
			Action: carouselAction,
			Items:  make([]string, len(candidates)),
		},
	}
	for i := range candidates {
		resp.Recommendations[i] = VoiceRecommendation{
			Position:  i + 1,
			ProductID: candidates[i].ProductID,
			Reason:    candidates[i].Reason,
			Score:     candidates[i].Score,
		}
		resp.VoiceWidget.Items[i] = candidates[i].ProductID
	}
	return resp
}
