package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/seguros/internal/model"
	"github.com/Veraticus/seguros/internal/storage"
)

// PolicyInput is what an operator fills in to create or edit a policy.
type PolicyInput struct {
	Coverage     model.Coverage
	InsuredValue decimal.Decimal
	Client       model.Client
	Type         model.CoverageType
	Status       model.PolicyStatus
	Start        model.Date
	End          model.Date
}

// RegisterClient adds a client that holds no policy yet.
func (s *Session) RegisterClient(ctx context.Context, client model.Client) (model.Client, error) {
	client = client.Normalized()
	if err := client.Validate(s.strictCPF); err != nil {
		return model.Client{}, err
	}
	if s.clientIndex(client.CPF) >= 0 {
		return model.Client{}, fmt.Errorf("%w: %s", ErrClientExists, client.CPF.Format())
	}

	s.clients = append(s.clients, client)
	s.logger.Info("client registered", "cpf", client.CPF)
	return client, writeFailure(s.store.SaveClients(ctx, s.clients))
}

// CreatePolicy validates the input, stores or refreshes the client, and
// appends a policy with the next number. Nothing changes when validation
// fails. On a write failure the policy stays in memory and is returned
// together with the error.
func (s *Session) CreatePolicy(ctx context.Context, in PolicyInput) (model.Policy, error) {
	client, policy, err := s.prepare(in)
	if err != nil {
		return model.Policy{}, err
	}
	policy.Number = s.next
	if err := policy.Validate(); err != nil {
		return model.Policy{}, err
	}

	s.upsertClient(client)
	s.policies = append(s.policies, policy)
	s.next = model.NextPolicyNumber(s.policies)
	s.logger.Info("policy created", "number", policy.Number, "cpf", client.CPF, "type", policy.Type)

	s.registerCredential(ctx, client.CPF)
	return policy, s.saveClientsAndPolicies(ctx)
}

// UpdatePolicy replaces the editable fields of an existing policy. The
// number and the client CPF stay the same; cancelled policies are frozen.
func (s *Session) UpdatePolicy(ctx context.Context, number model.PolicyNumber, in PolicyInput) (model.Policy, error) {
	i := s.policyIndex(number)
	if i < 0 {
		return model.Policy{}, fmt.Errorf("%w: %d", ErrPolicyNotFound, number)
	}
	current := s.policies[i]
	if current.Cancelled() {
		return model.Policy{}, fmt.Errorf("%w: %d", ErrPolicyCancelled, number)
	}

	client, policy, err := s.prepare(in)
	if err != nil {
		return model.Policy{}, err
	}
	if client.CPF != current.ClientCPF.Normalize() {
		return model.Policy{}, fmt.Errorf("%w: policy %d belongs to %s", ErrClientChange, number, current.ClientCPF.Format())
	}
	policy.Number = number
	if err := policy.Validate(); err != nil {
		return model.Policy{}, err
	}

	s.upsertClient(client)
	s.policies[i] = policy
	s.logger.Info("policy updated", "number", number)
	return policy, s.saveClientsAndPolicies(ctx)
}

// CancelPolicy marks a policy cancelled today. An empty reason records
// DefaultCancelReason.
func (s *Session) CancelPolicy(ctx context.Context, number model.PolicyNumber, reason string) (model.Policy, error) {
	i := s.policyIndex(number)
	if i < 0 {
		return model.Policy{}, fmt.Errorf("%w: %d", ErrPolicyNotFound, number)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}

	policy := s.policies[i]
	if err := policy.Cancel(model.NewDate(s.now()), reason); err != nil {
		return model.Policy{}, fmt.Errorf("%w: %d", err, number)
	}
	s.policies[i] = policy
	s.logger.Info("policy cancelled", "number", number, "reason", reason)
	return policy, writeFailure(s.store.SavePolicies(ctx, s.policies))
}

// RegisterClaim records a claim against an existing policy. A policy has
// at most one claim, so an earlier claim for the same number is replaced.
func (s *Session) RegisterClaim(ctx context.Context, claim model.Claim) (model.Claim, error) {
	i := s.policyIndex(claim.PolicyNumber)
	if i < 0 {
		return model.Claim{}, fmt.Errorf("%w: %d", ErrPolicyNotFound, claim.PolicyNumber)
	}
	if claim.Status == "" {
		claim.Status = model.ClaimUnderReview
	}
	claim.Description = strings.TrimSpace(claim.Description)
	if err := claim.Validate(s.policies[i]); err != nil {
		return model.Claim{}, err
	}

	if j := s.claimIndex(claim.PolicyNumber); j >= 0 {
		s.claims[j] = claim
		s.logger.Info("claim replaced", "policy", claim.PolicyNumber)
	} else {
		s.claims = append(s.claims, claim)
		s.logger.Info("claim registered", "policy", claim.PolicyNumber)
	}
	return claim, writeFailure(s.store.SaveClaims(ctx, s.claims))
}

// prepare normalizes and validates the client part and assembles the
// policy without a number.
func (s *Session) prepare(in PolicyInput) (model.Client, model.Policy, error) {
	client := in.Client.Normalized()
	if err := client.Validate(s.strictCPF); err != nil {
		return model.Client{}, model.Policy{}, err
	}

	status := in.Status
	if status == "" {
		status = model.StatusActive
	}
	if status == model.StatusCancelled {
		return model.Client{}, model.Policy{}, &model.ValidationError{
			Field:  "status_apolice",
			Reason: "use cancel to cancel a policy",
		}
	}

	policy := model.Policy{
		ClientCPF:    client.CPF,
		Type:         in.Type,
		Status:       status,
		Start:        in.Start,
		End:          in.End,
		InsuredValue: in.InsuredValue,
		Coverage:     in.Coverage,
	}
	return client, policy, nil
}

func (s *Session) upsertClient(client model.Client) {
	if i := s.clientIndex(client.CPF); i >= 0 {
		s.clients[i] = client
		return
	}
	s.clients = append(s.clients, client)
}

// registerCredential gives the policy holder a login. An existing login is
// left alone; other failures are logged and do not block the policy.
func (s *Session) registerCredential(ctx context.Context, cpf model.CPF) {
	if s.registrar == nil {
		return
	}
	err := s.registrar.Register(ctx, string(cpf), s.clientSecret, model.RoleUser)
	switch {
	case err == nil:
		s.logger.Info("client login created", "user", cpf)
	case errors.Is(err, storage.ErrUserExists):
	default:
		s.logger.Warn("failed to create client login", "user", cpf, "error", err)
	}
}
