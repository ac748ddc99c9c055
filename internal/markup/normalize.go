package markup

// Normalize converts rendered markup into canonical markup. It is pure and
// idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, error) {
	nodes, err := parse(raw, true)
	if err != nil {
		return "", err
	}
	return render(nodes), nil
}
