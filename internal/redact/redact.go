package redact

import (
	"math"
	"regexp"
)

const Redacted = "[REDACTED_SECRET]"

var (
	// Personal, deploy, runner, pipeline trigger and service account tokens.
	gitlabToken    = regexp.MustCompile(`gl(pat|dt|rt|ptt|soat)-[A-Za-z0-9_\-]{20,}`)
	runnerRegToken = regexp.MustCompile(`GR1348941[A-Za-z0-9_\-]{20,}`)
	jwtToken       = regexp.MustCompile(`eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+`)
	privateKey     = regexp.MustCompile(`-----BEGIN ([A-Z]+ )?PRIVATE KEY-----[\s\S]+?-----END ([A-Z]+ )?PRIVATE KEY-----`)
	genericToken   = regexp.MustCompile(`(?i)(token|secret|password|api[_-]?key|access[_-]?key)["'\s:=]+[A-Za-z0-9/+=_\-]{16,}`)
	urlParams      = regexp.MustCompile(`([?&](private_token|access_token|token|key|secret|sig|signature|auth)=)[^&\s]+`)
	urlUserinfo    = regexp.MustCompile(`(https?://[^/\s:@]+:)[^/\s@]+@`)
	base64Like     = regexp.MustCompile(`[A-Za-z0-9+/=]{32,}`)
	hexLike        = regexp.MustCompile(`[A-Fa-f0-9]{32,}`)
)

func Redact(input string) string {
	if input == "" {
		return input
	}
	output := input
	output = privateKey.ReplaceAllString(output, Redacted)
	output = gitlabToken.ReplaceAllString(output, Redacted)
	output = runnerRegToken.ReplaceAllString(output, Redacted)
	output = jwtToken.ReplaceAllString(output, Redacted)
	output = genericToken.ReplaceAllString(output, Redacted)
	output = urlParams.ReplaceAllString(output, "${1}"+Redacted)
	output = urlUserinfo.ReplaceAllString(output, "${1}"+Redacted+"@")
	output = redactHighEntropy(output)
	return output
}

// Optional redacts only when enabled.
func Optional(enabled bool) func(string) string {
	if !enabled {
		return func(input string) string { return input }
	}
	return Redact
}

func redactHighEntropy(input string) string {
	output := input
	output = replaceIfHighEntropy(output, base64Like)
	output = replaceIfHighEntropy(output, hexLike)
	return output
}

func replaceIfHighEntropy(input string, re *regexp.Regexp) string {
	return re.ReplaceAllStringFunc(input, func(match string) string {
		if entropy(match) >= 4.0 {
			return Redacted
		}
		return match
	})
}

// entropy is the Shannon entropy of s in bits per rune.
func entropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}
	length := float64(len([]rune(s)))
	var ent float64
	for _, count := range counts {
		p := float64(count) / length
		ent -= p * math.Log2(p)
	}
	return ent
}
