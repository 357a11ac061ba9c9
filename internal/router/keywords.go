package router

// Keyword clusters for the routing rules. Single tokens are matched by set
// membership over whitespace-split lowercase words; multi-word phrases by
// case-insensitive substring. Matchers are precomputed once at startup.

var timeKeywords = []string{"time", "date", "today", "clock"}

var aviationKeywords = []string{
	"flight", "aircraft", "airplane", "aviation", "airport", "runway",
	"pilot", "faa", "tail number", "flight position", "jet", "airline",
}

// aviationContextKeywords qualify an N-number token as an aircraft
// registration rather than an arbitrary identifier.
var aviationContextKeywords = []string{
	"flight", "plane", "aircraft", "flying", "fly", "landed", "airborne",
	"airport", "jet", "track", "tracking", "position", "where",
}

// nNumberExclusions disqualify tokens adjacent to these words.
var nNumberExclusions = []string{"phone", "ssn", "id", "highway", "route"}

var formula1Keywords = []string{
	"f1", "formula 1", "formula one", "grand prix", "verstappen", "hamilton",
	"leclerc", "norris", "qualifying", "pole position", "pit stop", "paddock",
	"race weekend", "drivers championship", "constructors championship",
}

var predictionKeywords = []string{
	"predict", "prediction", "forecast", "will", "future", "outlook",
	"going to", "expect", "projection", "likely",
}

var cryptoKeywords = []string{
	"crypto", "bitcoin", "btc", "ethereum", "eth", "blockchain", "altcoin",
	"defi", "stablecoin", "solana", "dogecoin",
}

var financeKeywords = []string{
	"stock", "stocks", "market", "invest", "investment", "portfolio",
	"dividend", "earnings", "revenue", "profit", "finance", "financial",
	"business", "economy", "inflation", "interest rate",
}

var mathKeywords = []string{
	"math", "equation", "calculate", "calculus", "algebra", "geometry",
	"derivative", "integral", "theorem", "solve for",
}

var englishKeywords = []string{
	"grammar", "essay", "paragraph", "spelling", "punctuation", "vocabulary",
	"literature", "proofread", "synonym",
}

var awsKeywords = []string{
	"aws", "ec2", "s3", "lambda", "dynamodb", "cloudformation",
	"cloudwatch", "iam", "vpc", "amazon web services",
}

var legalKeywords = []string{
	"legal", "law", "lawyer", "contract", "lawsuit", "liability",
	"copyright", "trademark", "statute", "regulation",
}

var webKeywords = []string{
	"website", "url", "http", "https", "browse", "web page", "webpage",
	"link", "www",
}

var researchKeywords = []string{
	"research", "study", "analyze", "analysis", "compare", "explain",
	"summarize", "investigate", "deep dive",
}

var realtimeKeywords = []string{"current", "today", "now", "latest"}
