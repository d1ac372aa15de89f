package session

import "github.com/Veraticus/seguros/internal/model"

// Clients returns a copy of the client collection.
func (s *Session) Clients() []model.Client {
	return append([]model.Client(nil), s.clients...)
}

// Policies returns a copy of the policy collection.
func (s *Session) Policies() []model.Policy {
	return append([]model.Policy(nil), s.policies...)
}

// Claims returns a copy of the claim collection.
func (s *Session) Claims() []model.Claim {
	return append([]model.Claim(nil), s.claims...)
}

// NextPolicyNumber is the number the next created policy will get.
func (s *Session) NextPolicyNumber() model.PolicyNumber {
	return s.next
}

// FindClient looks a client up by CPF in any format.
func (s *Session) FindClient(cpf model.CPF) (model.Client, bool) {
	if i := s.clientIndex(cpf.Normalize()); i >= 0 {
		return s.clients[i], true
	}
	return model.Client{}, false
}

// FindPolicy looks a policy up by number.
func (s *Session) FindPolicy(number model.PolicyNumber) (model.Policy, bool) {
	if i := s.policyIndex(number); i >= 0 {
		return s.policies[i], true
	}
	return model.Policy{}, false
}

// ClaimFor returns the claim registered for a policy.
func (s *Session) ClaimFor(number model.PolicyNumber) (model.Claim, bool) {
	if i := s.claimIndex(number); i >= 0 {
		return s.claims[i], true
	}
	return model.Claim{}, false
}

// PoliciesForClient returns the policies held by cpf in file order.
func (s *Session) PoliciesForClient(cpf model.CPF) []model.Policy {
	cpf = cpf.Normalize()
	var out []model.Policy
	for _, p := range s.policies {
		if p.ClientCPF.Normalize() == cpf {
			out = append(out, p)
		}
	}
	return out
}

func (s *Session) clientIndex(cpf model.CPF) int {
	for i, c := range s.clients {
		if c.CPF.Normalize() == cpf {
			return i
		}
	}
	return -1
}

func (s *Session) policyIndex(number model.PolicyNumber) int {
	if !number.Assigned() {
		return -1
	}
	for i, p := range s.policies {
		if p.Number == number {
			return i
		}
	}
	return -1
}

func (s *Session) claimIndex(number model.PolicyNumber) int {
	for i, c := range s.claims {
		if c.PolicyNumber == number {
			return i
		}
	}
	return -1
}
