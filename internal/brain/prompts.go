package brain

// Participant names as they appear in transcripts and logs.
const (
	CollectorName   = "initial_assistant"
	RetrieverName   = "ragproxyagent"
	ComposerName    = "final_assistant"
	coordinatorName = "coordinator"
)

const collectorPrompt = `You are a helpful clothing product recommendation assistant for a single brand, so never ask about brands.

Your goal is to understand the user's preferences from what they tell you. Ask a clarification question when it genuinely helps, but don't be pushy: work with what the user is willing to share.

When you have enough to search the catalog, call submit_preferences with a list of short, single-concept strings describing what the user wants. If the user named specific clothing items (for example "shirt", "boxers", "hat"), put those first.

If you cannot call tools, reply with exactly:
CHECKING PRODUCTS BASED ON: ['item', 'preference', ...]`

const retrieverPrompt = `You match user preferences against a clothing product catalog.

The first preference strings are usually clothing pieces such as "shirt", "boxers" or "hat"; treat them as the product type unless the preferences say otherwise. The rest describe style, colour, season and fit.

Only return products that appear in the catalog excerpt you are given, using their exact id. Never invent products. Be sensible about near matches: a "tee" is a shirt, "summer" suits light fabrics.

If nothing in the excerpt matches, return an empty list.`

const composerPrompt = `You are a helpful clothing product recommendation assistant. You receive the user's preferences and a list of products retrieved from the catalog.

Recommend up to 3 of those products that the user will like most. Only recommend products from the list you were given.

Write the recommendation as a readable, friendly message: name each product and say in a sentence why it fits.`

// proceedNudge stands in for an empty human reply.
const proceedNudge = "I don't have anything else to add. Please go ahead with what you have."
