// Package engine evaluates callback allow-list policy using OPA Rego.
package engine

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"digital-forms-platform/runner/internal/callback/repository"
)

const allowQuery = "data.forms.callback.allow"

// Default Rego policy: a callback is allowed iff its hostname is an exact
// member of the configured whitelist.
const defaultRegoPolicy = `package forms.callback

default allow = false

allow if {
	input.hostname == input.whitelist[_]
}
`

// OPAEvaluator evaluates callback policy using OPA Rego. The whitelist is
// supplied at registration time; per-form override policies come from the
// repository when one is configured.
type OPAEvaluator struct {
	whitelist  []string
	policyRepo repository.Repository
}

// NewOPAEvaluator returns an OPA-based callback evaluator over the given
// whitelist. policyRepo may be nil; the default policy then always applies.
func NewOPAEvaluator(whitelist []string, policyRepo repository.Repository) *OPAEvaluator {
	return &OPAEvaluator{whitelist: whitelist, policyRepo: policyRepo}
}

// Validate parses rawURL and evaluates callback policy for formID.
func (e *OPAEvaluator) Validate(ctx context.Context, formID, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidHostname
	}
	hostname := u.Hostname()
	if hostname == "" {
		return ErrInvalidHostname
	}

	input := map[string]interface{}{
		"hostname":  hostname,
		"whitelist": e.whitelist,
		"form_id":   formID,
	}

	// Load enabled override policies for the form
	var policies []string
	if e.policyRepo != nil {
		overrides, err := e.policyRepo.ListByForm(ctx, formID)
		if err != nil {
			log.Printf("callback: failed to load policies for form %s: %v", formID, err)
		} else {
			for _, p := range overrides {
				if p.Enabled && p.Rules != "" {
					policies = append(policies, p.Rules)
				}
			}
		}
	}

	// Use default policy if no form policies exist
	if len(policies) == 0 {
		policies = []string{defaultRegoPolicy}
	}

	allowed, err := e.evaluatePolicies(ctx, policies, input)
	if err != nil {
		log.Printf("callback: evaluation failed: %v, using default policy", err)
		allowed, err = e.evaluatePolicies(ctx, []string{defaultRegoPolicy}, input)
		if err != nil {
			return fmt.Errorf("callback: evaluate default policy: %w", err)
		}
	}
	if !allowed {
		return ErrCallbackNotAllowed
	}
	return nil
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and evaluate the default policy.
// Does not call the policy repo or database. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	input := map[string]interface{}{
		"hostname":  "example.com",
		"whitelist": []string{"example.com"},
		"form_id":   "",
	}
	allowed, err := e.evaluatePolicies(ctx, []string{defaultRegoPolicy}, input)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("callback: default policy rejected its own fixture")
	}
	return nil
}

func (e *OPAEvaluator) evaluatePolicies(ctx context.Context, policies []string, input map[string]interface{}) (bool, error) {
	modules := make(map[string]string)
	for i, policy := range policies {
		modules[fmt.Sprintf("policy_%d.rego", i)] = policy
	}

	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return false, fmt.Errorf("compile policies: %w", err)
	}

	q := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return false, fmt.Errorf("eval policies: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, fmt.Errorf("policy query returned no result")
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("policy query returned non-boolean")
	}
	return allowed, nil
}
