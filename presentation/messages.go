package presentation

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Bilingual is a caption shown in English with its Hindi counterpart.
type Bilingual struct {
	En string `json:"en"`
	Hi string `json:"hi"`
}

var tierMessages = map[Tier]Bilingual{
	TierHigh: {
		En: "🎉 Excellent yield prediction! Great going! 🌱",
		Hi: "वाह! बंपर फसल की संभावना है। बधाई हो!",
	},
	TierMedium: {
		En: "🌳 Decent yield prediction! Go ahead! 🌱",
		Hi: "अच्छी फसल की उम्मीद है। मेहनत रंग लाई!",
	},
	TierLow: {
		En: "☘️ Yield prediction is low. Consider optimizing your resources. 🌧️",
		Hi: "फसल कम होने की आशंका है। कुछ सुधार की जरूरत है।",
	},
}

func TierMessage(t Tier) Bilingual {
	return tierMessages[t]
}

// Labels holds the captions of the form page.
type Labels struct {
	Title        Bilingual
	Subtitle     Bilingual
	Inputs       Bilingual
	Crop         Bilingual
	Season       Bilingual
	State        Bilingual
	Area         Bilingual
	Fertilizer   Bilingual
	Pesticide    Bilingual
	Rainfall     Bilingual
	Production   Bilingual
	Submit       Bilingual
	ResultHeader Bilingual
	ResultNote   Bilingual
	Footer       Bilingual
	Disclaimer   Bilingual
}

func DefaultLabels() Labels {
	return Labels{
		Title:        Bilingual{En: "🌾 Crop Yield Predictor"},
		Subtitle:     Bilingual{En: "🌱 Predict the yield of your crops based on your input resources!", Hi: "अपने खेत की उपज जानने के लिए यहाँ क्लिक करें!"},
		Inputs:       Bilingual{En: "🌿 Input Parameters"},
		Crop:         Bilingual{En: "Select Crop", Hi: "🌾 फसल चुनें"},
		Season:       Bilingual{En: "Select Season", Hi: "🗓️ मौसम चुनें"},
		State:        Bilingual{En: "Select State", Hi: "🏞️ राज्य चुनें"},
		Area:         Bilingual{En: "Area (in hectares)", Hi: "🌍 खेत का क्षेत्रफल (हेक्टेयर में)"},
		Fertilizer:   Bilingual{En: "Fertilizer Usage (in Kgs)", Hi: "🧪 उर्वरक की मात्रा (किलोग्राम)"},
		Pesticide:    Bilingual{En: "Pesticide Usage (in Kgs)", Hi: "🛡️ कीटनाशक की मात्रा (किलोग्राम)"},
		Rainfall:     Bilingual{En: "Annual Rainfall (mm)", Hi: "☔ वार्षिक वर्षा (मिलीमीटर में)"},
		Production:   Bilingual{En: "Production (in tons)", Hi: "🏭 वार्षिक उत्पादन (टन में)"},
		Submit:       Bilingual{En: "🌟 Predict Yield (production per unit area)", Hi: "फसल का अनुमान लगाएँ"},
		ResultHeader: Bilingual{En: "📈 Predicted yield", Hi: "📈 अनुमानित उपज"},
		ResultNote:   Bilingual{En: "Estimated yield per hectare", Hi: "आपकी मेहनत का फल: प्रति हेक्टेयर अनुमानित उपज"},
		Footer: Bilingual{
			En: "Boost Your Harvest: Optimize your resources for precise yield and farm prosperity!",
			Hi: "अपनी उपज को बढ़ाएं: संसाधनों का सही उपयोग कर खेती को समृद्धि की ओर ले जाएं।",
		},
		Disclaimer: Bilingual{
			En: "While this web app provides data-driven crop yield predictions, it is essential to consult with a local agricultural expert for personalized advice and the most accurate guidance tailored to your specific farming conditions.",
			Hi: "यह वेब ऐप आपको डेटा के आधार पर फसल उत्पादन की भविष्यवाणी देता है, लेकिन आपकी विशिष्ट खेती की परिस्थितियों के अनुसार सटीक मार्गदर्शन के लिए स्थानीय कृषि विशेषज्ञ से परामर्श अवश्य करें।",
		},
	}
}

var supported = []language.Tag{language.English, language.Hindi}

var matcher = language.NewMatcher(supported)

// Negotiate picks English or Hindi from an Accept-Language header.
// It decides which caption leads; both are always shown.
func Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// FormatYield renders a yield with two decimals and locale digit grouping.
func FormatYield(tag language.Tag, yield float64) string {
	return message.NewPrinter(tag).Sprintf("%.2f", Round2(yield))
}
