// Package audit scores a website description for conversion optimization
// with a generative model.
//
// [GeminiAuditor] sends the description to Gemini with a JSON response
// schema and decodes {score, recommendations, tips}. [Consultant] is what the
// CLI and the API call: it refuses blank input before any request is made,
// rate-limits, caches results by description and retries transient model
// failures. Its [Consultant.Submit] collapses every failure into "no result"
// so callers never have to handle a fault:
//
//	res, ok := consultant.Submit(ctx, "Handmade leather goods, Instagram traffic")
//	if !ok {
//	    // show "no result produced"
//	}
package audit
