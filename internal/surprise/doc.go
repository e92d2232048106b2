// Package surprise implements per-pixel Bayesian surprise scoring over
// video feature maps.
//
// Each pixel of each enabled feature channel carries a Gamma-distributed
// belief about the value it usually observes. Every frame the belief is
// updated with a forgetting-weighted conjugate Bayesian rule and the
// magnitude of the belief change is measured with the closed-form
// Kullback-Leibler divergence between prior and posterior. The per-pixel
// divergences aggregate into a single scalar per frame, expressed in
// "wows": one wow corresponds to a belief doubling.
//
// The forgetting factor discounts old evidence so the model re-adapts to
// slow scene changes and stops reacting to periodic regularities (foliage,
// blinking lights) after a few cycles.
package surprise
