package enhance

import "golang.org/x/text/language"

// Supported response languages. Anything else is answered in English.
const (
	English = "en"
	Hindi   = "hi"
	Spanish = "es"
)

var supported = []language.Tag{language.English, language.Hindi, language.Spanish}

var matcher = language.NewMatcher(supported)

// ResolveLanguage maps a BCP 47 tag or Accept-Language value onto one of
// the supported languages.
func ResolveLanguage(tag string) string {
	if tag == "" {
		return English
	}
	tags, _, err := language.ParseAcceptLanguage(tag)
	if err != nil || len(tags) == 0 {
		return English
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return English
	}
	base, _ := supported[idx].Base()
	return base.String()
}

type phrasebook struct {
	welcome       string
	greetings     map[Mood][]string
	continuations map[Mood][]string
	closings      map[Mood][]string
	followUpLead  string
}

var phrasebooks = map[string]phrasebook{
	English: {
		welcome: "Hello! I'm your farming assistant. Ask me anything about your crops and fields.",
		greetings: map[Mood][]string{
			MoodProblem:       {"Hello! Sorry to hear you're dealing with this. Here's what should help:", "Hi there! Let's get this problem sorted out."},
			MoodSuccess:       {"Hello! Great to hear things are going well.", "Hi! Wonderful news."},
			MoodInformational: {"Hello! Happy to help with that.", "Hi there! Here's what you need to know."},
		},
		continuations: map[Mood][]string{
			MoodProblem:       {"Let's tackle this one too.", "Okay, here's how to deal with that."},
			MoodSuccess:       {"That's great progress.", "Nice work so far."},
			MoodInformational: {"Good question.", "Here's more on that."},
		},
		closings: map[Mood][]string{
			MoodProblem:       {"Keep an eye on the crop over the next few days and ask again if it gets worse.", "If symptoms spread, contact your local extension officer."},
			MoodSuccess:       {"Keep up the good work!", "Wishing you a great harvest!"},
			MoodInformational: {"Feel free to ask if you have more questions.", "Happy farming!"},
		},
		followUpLead: "You might also want to ask:",
	},
	Hindi: {
		welcome: "नमस्ते! मैं आपका कृषि सहायक हूँ। अपनी फसल और खेत के बारे में कुछ भी पूछें।",
		greetings: map[Mood][]string{
			MoodProblem:       {"नमस्ते! यह समस्या सुनकर दुख हुआ। यह उपाय मदद करेगा:", "नमस्ते! आइए इस समस्या को हल करें।"},
			MoodSuccess:       {"नमस्ते! यह जानकर खुशी हुई कि सब अच्छा चल रहा है।", "नमस्ते! बहुत बढ़िया खबर है।"},
			MoodInformational: {"नमस्ते! मुझे मदद करके खुशी होगी।", "नमस्ते! यह जानकारी आपके काम आएगी।"},
		},
		continuations: map[Mood][]string{
			MoodProblem:       {"आइए इसे भी हल करें।", "ठीक है, इससे ऐसे निपटें।"},
			MoodSuccess:       {"यह बहुत अच्छी प्रगति है।", "अब तक बढ़िया काम।"},
			MoodInformational: {"अच्छा सवाल है।", "इसके बारे में और जानकारी:"},
		},
		closings: map[Mood][]string{
			MoodProblem:       {"अगले कुछ दिन फसल पर नज़र रखें और समस्या बढ़े तो फिर पूछें।", "लक्षण फैलें तो स्थानीय कृषि अधिकारी से संपर्क करें।"},
			MoodSuccess:       {"ऐसे ही अच्छा काम करते रहें!", "आपकी फसल अच्छी हो!"},
			MoodInformational: {"और सवाल हों तो ज़रूर पूछें।", "खेती शुभ हो!"},
		},
		followUpLead: "आप यह भी पूछ सकते हैं:",
	},
	Spanish: {
		welcome: "¡Hola! Soy tu asistente agrícola. Pregúntame lo que quieras sobre tus cultivos y tu campo.",
		greetings: map[Mood][]string{
			MoodProblem:       {"¡Hola! Lamento que estés pasando por esto. Esto debería ayudar:", "¡Hola! Vamos a resolver este problema."},
			MoodSuccess:       {"¡Hola! Me alegra saber que todo va bien.", "¡Hola! Excelentes noticias."},
			MoodInformational: {"¡Hola! Con gusto te ayudo.", "¡Hola! Esto es lo que necesitas saber."},
		},
		continuations: map[Mood][]string{
			MoodProblem:       {"Veamos también este problema.", "Bien, así puedes manejarlo."},
			MoodSuccess:       {"¡Muy buen progreso!", "Buen trabajo hasta ahora."},
			MoodInformational: {"Buena pregunta.", "Aquí tienes más información."},
		},
		closings: map[Mood][]string{
			MoodProblem:       {"Vigila el cultivo los próximos días y vuelve a preguntar si empeora.", "Si los síntomas se extienden, consulta a tu técnico agrícola local."},
			MoodSuccess:       {"¡Sigue así!", "¡Que tengas una gran cosecha!"},
			MoodInformational: {"Si tienes más preguntas, aquí estoy.", "¡Feliz cultivo!"},
		},
		followUpLead: "También podrías preguntar:",
	},
}

func phrasesFor(lang string) phrasebook {
	if pb, ok := phrasebooks[lang]; ok {
		return pb
	}
	return phrasebooks[English]
}

// Greeting returns the session-independent welcome line for lang.
func Greeting(lang string) string {
	return phrasesFor(ResolveLanguage(lang)).welcome
}
