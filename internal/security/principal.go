package security

// Principal is the identity attached to a request after the auth cookie has
// been parsed. A zero Principal is the anonymous one.
type Principal struct {
	Subject       string
	Name          string
	Authenticated bool
}

func Anonymous() Principal { return Principal{} }

func PrincipalFromClaims(claims *Claims) Principal {
	if claims == nil {
		return Anonymous()
	}
	return Principal{
		Subject:       claims.Subject,
		Name:          claims.FullName,
		Authenticated: true,
	}
}

// HasSubjectClaim reports whether the principal carries the stable user
// identifier claim.
func (p Principal) HasSubjectClaim() bool { return p.Subject != "" }
