package pathengine

type Reconstruction struct {
	// Path is ordered prerequisite first, ending at the target.
	Path      []string
	Found     bool
	Truncated bool
}

// Reconstruct walks predecessor links back from target. Found is false when
// the target never received a predecessor. The walk stops after 2*nodeCount
// steps and reports Truncated if links remained.
func Reconstruct(pred map[string]string, target string, nodeCount int) Reconstruction {
	if _, ok := pred[target]; !ok {
		return Reconstruction{}
	}
	limit := 2 * nodeCount
	walked := []string{target}
	cur := target
	truncated := false
	for steps := 0; ; steps++ {
		p, ok := pred[cur]
		if !ok {
			break
		}
		if steps >= limit {
			truncated = true
			break
		}
		walked = append(walked, p)
		cur = p
	}
	for i, j := 0, len(walked)-1; i < j; i, j = i+1, j-1 {
		walked[i], walked[j] = walked[j], walked[i]
	}
	return Reconstruction{Path: walked, Found: true, Truncated: truncated}
}
