package triage

// Intent labels, in bucket-feature order. Feature indices 8..17 hold the
// phrase-hit counts for the buckets below in the same order, so
// bucketIndex(label) == featureIndex(label) - firstBucketFeature.
const (
	IntentMedic    = "MEDIC"
	IntentWater    = "WATER"
	IntentFood     = "FOOD"
	IntentShelter  = "SHELTER"
	IntentDanger   = "DANGER"
	IntentEvac     = "EVAC"
	IntentInfo     = "INFO"
	IntentDisaster = "DISASTER"
	IntentSickness = "SICKNESS"
	IntentChat     = "CHAT"
)

var intentLabels = [10]string{
	IntentMedic, IntentWater, IntentFood, IntentShelter, IntentDanger,
	IntentEvac, IntentInfo, IntentDisaster, IntentSickness, IntentChat,
}

// bucketLexicon holds the offline-curated phrase list for one bucket.
// Presence is substring matching against the normalized text.
var bucketLexicon = [10][]string{
	{"medic", "injured", "bleeding", "wound", "broken bone", "unconscious", "chest pain", "heart attack", "overdose"},
	{"water", "dehydrated", "thirsty"},
	{"food", "hungry", "starving", "rations"},
	{"shelter", "roof", "exposure", "tent", "homeless"},
	{"shots fired", "gunfire", "armed", "active shooter", "danger", "threat", "attacker", "explosion"},
	{"evacuate", "evacuation", "get out", "leaving now", "need evac", "trapped"},
	{"update", "information", "status report", "any news", "sitrep"},
	{"earthquake", "flood", "collapsed", "building collapse", "landslide", "tsunami", "wildfire"},
	{"sick", "fever", "vomiting", "infection", "disease", "covid"},
	{"hello", "hi there", "good morning", "thanks", "how are you", "all good", "checking in"},
}

// locationCues suppress needs_location when present, and also count as the
// structural has-location-word feature.
var locationCues = []string{"near", "at", "by", "behind", "next to", "coords", "gps", "location"}

// timeWords require whole-word (token) matching in norm.
var timeWords = []string{"now", "today", "tonight", "tomorrow", "minutes", "hours", "asap", "immediately", "urgent"}

// locationTokens are candidate short-location substrings extracted for
// TriageOutput.Location, tried in this priority order.
var locationTokens = []string{"library", "bridge", "camp", "market", "hospital", "school"}
