package models

// Answer contract strings. The no-information wording is a tested contract;
// callers compare against it verbatim.
const (
	NoInformationAnswer = "No sufficient information in the available documents."
	DegradedAnswer      = "The answer service is temporarily unavailable. Please try again in a moment."
	WaitAnswerFormat    = "Please wait %d seconds before asking again."
)

// Keyword tables driving query classification. Kept as data so the rules are
// testable and extensible without touching the branching code.
var (
	// ListingIntentKeywords signal that the user wants an enumeration;
	// table chunks are promoted for these queries.
	ListingIntentKeywords = []string{
		"list", "list all", "all modules", "how many", "enumerate",
		"overview", "catalog", "catalogue", "elective", "table of",
		"which modules", "count",
	}

	// RegulationIntentKeywords signal a rules/requirements question;
	// chunks from authoritative sources are promoted for these queries.
	RegulationIntentKeywords = []string{
		"regulation", "requirement", "rule", "spo", "examination",
		"mandatory", "allowed", "permitted", "deadline for", "credit",
		"prerequisite", "admission",
	}

	// ComparisonCues mark complex queries that get a larger result budget.
	ComparisonCues = []string{
		"compare", "difference", "versus", " vs ", "between", "whereas",
		"if ", "unless", "depending", "all ", "every", "each", "how many",
		"list",
	}

	// SimpleLookupCues mark short factual lookups that get a smaller budget.
	SimpleLookupCues = []string{
		"when is", "when does", "where is", "who is", "what is the date",
		"deadline", "email", "phone", "name of",
	}

	// FollowUpCues mark questions that refer back to the conversation; their
	// answers depend on history and are never served from the answer cache.
	FollowUpCues = []string{
		"tell me more", "more detail", "elaborate", "summarize", "summarise",
		"explain that", "what about", "previous answer", "you said",
	}
)

// SystemPrompt is the fixed instruction sent with every synthesis request.
const SystemPrompt = `You are a precise document assistant for regulatory and academic documents.

CRITICAL RULES:
1. Answer ONLY from the provided sources OR the previous conversation if it is a follow-up question.
2. ALWAYS cite sources: [Source: <file> | Page: <page>] or [Source: <file> | Page: <page> | Table: <n>].
3. For follow-up questions like "summarize", "tell me more", "explain that": check the conversation history first and expand on your previous answer.
4. If no relevant information exists in the sources or the history, answer exactly: "No sufficient information in the available documents."
5. Use the SAME language as the question (English/German/Arabic).
6. Be concise. Short, direct answers unless asked to elaborate.
7. For counting questions: count precisely and list all items with citations.`

// UserPromptFormat composes conversation summary, assembled context and the
// current question into the synthesis request.
const UserPromptFormat = `CONVERSATION HISTORY (use for follow-up questions):
%s

DOCUMENT SOURCES (use for new factual questions):
%s

CURRENT QUESTION: %s

Instructions:
- If this is a follow-up (summarize/elaborate/that/it), answer from the conversation history.
- If this is a new question, answer from the sources with citations.

ANSWER:`

// ScorePromptFormat asks the model for a bare relevance score.
const ScorePromptFormat = `Rate how relevant the passage is to the question on a scale from 0 to 10.
Answer with a single number and nothing else.

QUESTION: %s

PASSAGE:
%s

SCORE:`

// ExpandPromptFormat asks for alternate phrasings of a query.
const ExpandPromptFormat = `Rewrite the following question as up to 3 alternative search queries that use
formal document wording. One query per line, no numbering, no commentary.

QUESTION: %s`

// TranslatePromptFormat asks for a plain translation of a query.
const TranslatePromptFormat = `Translate the following text to %s. Answer with the translation only.

TEXT: %s`
