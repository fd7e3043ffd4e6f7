// Package config loads the XML run configuration of an unfolding job.
//
// The document root holds one element per input (data, sig, bkg, res, gen), scalar
// settings carried in value attributes (lumi, br, do_total, reco_scale, do_eff, transpose),
// the unfolding element and the optional spectrum element. A loaded Configuration is never mutated.
package config
