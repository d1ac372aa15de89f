package model

// NextPolicyNumber returns one past the highest assigned number, or 1 when
// no policy has a positive number.
func NextPolicyNumber(policies []Policy) PolicyNumber {
	var highest PolicyNumber
	for _, p := range policies {
		if p.Number > highest {
			highest = p.Number
		}
	}
	return highest + 1
}
