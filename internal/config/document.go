package config

import "encoding/xml"

const documentRootElementConstant = "configuration"

type sourceElement struct {
	File string `xml:"file,attr"`
	Path string `xml:"hpath,attr"`
}

type valueElement struct {
	Value string `xml:"value,attr"`
}

type unfoldingElement struct {
	Method           string `xml:"method,attr"`
	Regularization   string `xml:"regularization,attr,omitempty"`
	StatisticalError string `xml:"statErr,attr,omitempty"`
	Toys             string `xml:"ntoys,attr,omitempty"`
}

type spectrumElement struct {
	Particle string `xml:"particle,attr,omitempty"`
	Variable string `xml:"variable,attr,omitempty"`
}

// document mirrors the XML layout. The root element name is not checked on decode.
type document struct {
	XMLName              xml.Name
	Data                 *sourceElement    `xml:"data"`
	Signal               *sourceElement    `xml:"sig"`
	Background           *sourceElement    `xml:"bkg"`
	Response             *sourceElement    `xml:"res"`
	Generated            *sourceElement    `xml:"gen"`
	Luminosity           *valueElement     `xml:"lumi"`
	BranchingRatio       *valueElement     `xml:"br"`
	TotalCrossSection    *valueElement     `xml:"do_total"`
	RecoScale            *valueElement     `xml:"reco_scale"`
	EfficiencyCorrection *valueElement     `xml:"do_eff"`
	TransposeResponse    *valueElement     `xml:"transpose"`
	Unfolding            *unfoldingElement `xml:"unfolding"`
	Spectrum             *spectrumElement  `xml:"spectrum"`
}
