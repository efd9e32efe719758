package mine

// Confidence derives a trust score for a cluster's template from its
// wildcard density alone. More wildcards means the template has absorbed
// more variance and is a weaker semantic label. Stateless on purpose:
// cheap enough to run on every cluster in a batch.
func Confidence(c *Cluster) float64 {
	switch c.WildcardCount() {
	case 0:
		return 0.95
	case 1:
		return 0.85
	case 2:
		return 0.70
	default:
		return 0.50
	}
}
