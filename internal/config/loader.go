package config

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/temirov/xsec/internal/unfolding"
)

const (
	elementDataConstant                 = "data"
	elementSignalConstant               = "sig"
	elementBackgroundConstant           = "bkg"
	elementResponseConstant             = "res"
	elementGeneratedConstant            = "gen"
	elementLuminosityConstant           = "lumi"
	elementBranchingRatioConstant       = "br"
	elementTotalCrossSectionConstant    = "do_total"
	elementRecoScaleConstant            = "reco_scale"
	elementEfficiencyCorrectionConstant = "do_eff"
	elementTransposeConstant            = "transpose"
	elementUnfoldingConstant            = "unfolding"
	attributeFileConstant               = "file"
	attributePathConstant               = "hpath"
	attributeValueConstant              = "value"
	attributeMethodConstant             = "method"
	attributeRegularizationConstant     = "regularization"
	attributeToysConstant               = "ntoys"
	placeholderSystematicConstant       = "{systematic}"
	placeholderParticleConstant         = "{particle}"
	placeholderVariableConstant         = "{variable}"
	booleanTrueConstant                 = "1"
	booleanFalseConstant                = "0"
	minimumToysConstant                 = 2
	missingElementTemplateConstant      = "%w: <%s>"
	missingAttributeTemplateConstant    = "%w: <%s %s>"
	invalidValueTemplateConstant        = "%w: <%s %s=%q>: %v"
	invalidMethodTemplateConstant       = "%w: <%s %s=%q>: %w"
	malformedDocumentTemplateConstant   = "%w: %v"
	unreadableDocumentTemplateConstant  = "%w: %w"
	notPositiveMessageConstant          = "must be a positive finite number"
	notFiniteMessageConstant            = "must be a finite number"
	tooFewToysTemplateConstant          = "toys mode needs 0 toys or at least %d"
	negativeToysMessageConstant         = "must not be negative"
	documentIndentConstant              = "  "
	marshalErrorTemplateConstant        = "unable to serialize configuration: %w"
)

// Load reads and validates the XML configuration at configurationPath.
// The systematic name fills {systematic} placeholders and selects the default toy distribution.
// Every failure is a ConfigError.
func Load(configurationPath string, systematic string) (Configuration, error) {
	contents, readError := os.ReadFile(configurationPath)
	if readError != nil {
		return Configuration{}, ConfigError{Path: configurationPath, Cause: fmt.Errorf(unreadableDocumentTemplateConstant, ErrUnreadableDocument, readError)}
	}
	configuration, parseError := Parse(contents, systematic)
	if parseError != nil {
		var configError ConfigError
		if errors.As(parseError, &configError) {
			configError.Path = configurationPath
			return Configuration{}, configError
		}
		return Configuration{}, ConfigError{Path: configurationPath, Cause: parseError}
	}
	return configuration, nil
}

// Parse validates an XML configuration held in memory.
func Parse(contents []byte, systematic string) (Configuration, error) {
	var parsed document
	if decodeError := xml.NewDecoder(bytes.NewReader(contents)).Decode(&parsed); decodeError != nil {
		return Configuration{}, ConfigError{Cause: fmt.Errorf(malformedDocumentTemplateConstant, ErrMalformedDocument, decodeError)}
	}
	configuration, buildError := build(parsed, systematic)
	if buildError != nil {
		return Configuration{}, ConfigError{Cause: buildError}
	}
	return configuration, nil
}

func build(parsed document, systematic string) (Configuration, error) {
	configuration := Configuration{Systematic: systematic}
	var parseError error

	if parsed.Spectrum != nil {
		configuration.Particle = strings.TrimSpace(parsed.Spectrum.Particle)
		configuration.Variable = strings.TrimSpace(parsed.Spectrum.Variable)
	}
	expander := strings.NewReplacer(
		placeholderSystematicConstant, systematic,
		placeholderParticleConstant, configuration.Particle,
		placeholderVariableConstant, configuration.Variable,
	)

	if configuration.EfficiencyCorrection, parseError = parseFlag(parsed.EfficiencyCorrection, elementEfficiencyCorrectionConstant, true); parseError != nil {
		return Configuration{}, parseError
	}
	if configuration.TotalCrossSection, parseError = parseFlag(parsed.TotalCrossSection, elementTotalCrossSectionConstant, false); parseError != nil {
		return Configuration{}, parseError
	}
	if configuration.TransposeResponse, parseError = parseFlag(parsed.TransposeResponse, elementTransposeConstant, false); parseError != nil {
		return Configuration{}, parseError
	}

	requiredSources := []struct {
		element  string
		source   *sourceElement
		target   *HistogramSource
		required bool
	}{
		{element: elementDataConstant, source: parsed.Data, target: &configuration.Data, required: true},
		{element: elementSignalConstant, source: parsed.Signal, target: &configuration.Signal, required: true},
		{element: elementResponseConstant, source: parsed.Response, target: &configuration.Response, required: true},
		{element: elementGeneratedConstant, source: parsed.Generated, target: &configuration.Generated, required: configuration.EfficiencyCorrection},
		{element: elementBackgroundConstant, source: parsed.Background, target: &configuration.Background, required: false},
	}
	for _, candidate := range requiredSources {
		if *candidate.target, parseError = parseSource(candidate.source, candidate.element, candidate.required, expander); parseError != nil {
			return Configuration{}, parseError
		}
	}

	if parsed.Luminosity == nil {
		return Configuration{}, fmt.Errorf(missingElementTemplateConstant, ErrMissingElement, elementLuminosityConstant)
	}
	if configuration.Luminosity, parseError = parsePositive(parsed.Luminosity, elementLuminosityConstant, 0); parseError != nil {
		return Configuration{}, parseError
	}
	if configuration.BranchingRatio, parseError = parsePositive(parsed.BranchingRatio, elementBranchingRatioConstant, 1); parseError != nil {
		return Configuration{}, parseError
	}
	if configuration.RecoScale, parseError = parseFinite(parsed.RecoScale, elementRecoScaleConstant, 1); parseError != nil {
		return Configuration{}, parseError
	}

	if parseError = applyUnfolding(parsed.Unfolding, &configuration); parseError != nil {
		return Configuration{}, parseError
	}
	return configuration, nil
}

func applyUnfolding(element *unfoldingElement, configuration *Configuration) error {
	if element == nil {
		return fmt.Errorf(missingElementTemplateConstant, ErrMissingElement, elementUnfoldingConstant)
	}
	rawMethod := strings.TrimSpace(element.Method)
	if len(rawMethod) == 0 {
		return fmt.Errorf(missingAttributeTemplateConstant, ErrMissingAttribute, elementUnfoldingConstant, attributeMethodConstant)
	}
	method, methodError := unfolding.ParseMethod(rawMethod)
	if methodError != nil {
		return fmt.Errorf(invalidMethodTemplateConstant, ErrInvalidValue, elementUnfoldingConstant, attributeMethodConstant, rawMethod, methodError)
	}
	configuration.Method = method

	configuration.Regularization = DefaultRegularization
	if rawRegularization := strings.TrimSpace(element.Regularization); len(rawRegularization) > 0 {
		regularization, conversionError := strconv.Atoi(rawRegularization)
		if conversionError != nil {
			return fmt.Errorf(invalidValueTemplateConstant, ErrInvalidValue, elementUnfoldingConstant, attributeRegularizationConstant, rawRegularization, conversionError)
		}
		configuration.Regularization = regularization
	}

	configuration.Toys = DefaultToys
	if rawToys := strings.TrimSpace(element.Toys); len(rawToys) > 0 {
		toyCount, conversionError := strconv.Atoi(rawToys)
		if conversionError != nil {
			return fmt.Errorf(invalidValueTemplateConstant, ErrInvalidValue, elementUnfoldingConstant, attributeToysConstant, rawToys, conversionError)
		}
		if toyCount < 0 {
			return fmt.Errorf(invalidValueTemplateConstant, ErrInvalidValue, elementUnfoldingConstant, attributeToysConstant, rawToys, negativeToysMessageConstant)
		}
		configuration.Toys = toyCount
	}

	configuration.StatisticalError = strings.TrimSpace(element.StatisticalError)
	if len(configuration.StatisticalError) == 0 {
		configuration.StatisticalError = statisticalErrorNoneConstant
	}
	uncertainty, uncertaintyError := ParseStatisticalError(configuration.StatisticalError, configuration.Systematic, configuration.Toys)
	if uncertaintyError != nil {
		return uncertaintyError
	}
	// Zero toys keeps the backend bin errors; one toy has no sample covariance.
	if uncertainty.Mode == UncertaintyToys && uncertainty.Toys > 0 && uncertainty.Toys < minimumToysConstant {
		return fmt.Errorf(invalidValueTemplateConstant, ErrInvalidValue, elementUnfoldingConstant, attributeToysConstant, strconv.Itoa(uncertainty.Toys), fmt.Sprintf(tooFewToysTemplateConstant, minimumToysConstant))
	}
	configuration.Uncertainty = uncertainty
	return nil
}

func parseSource(element *sourceElement, elementName string, required bool, expander *strings.Replacer) (HistogramSource, error) {
	if element == nil {
		if required {
			return HistogramSource{}, fmt.Errorf(missingElementTemplateConstant, ErrMissingElement, elementName)
		}
		return HistogramSource{}, nil
	}
	source := HistogramSource{
		File: expander.Replace(strings.TrimSpace(element.File)),
		Path: expander.Replace(strings.TrimSpace(element.Path)),
	}
	if !required {
		return source, nil
	}
	if len(source.File) == 0 {
		return HistogramSource{}, fmt.Errorf(missingAttributeTemplateConstant, ErrMissingAttribute, elementName, attributeFileConstant)
	}
	if len(source.Path) == 0 {
		return HistogramSource{}, fmt.Errorf(missingAttributeTemplateConstant, ErrMissingAttribute, elementName, attributePathConstant)
	}
	return source, nil
}

func parseFinite(element *valueElement, elementName string, defaultValue float64) (float64, error) {
	if element == nil {
		return defaultValue, nil
	}
	rawValue := strings.TrimSpace(element.Value)
	if len(rawValue) == 0 {
		return 0, fmt.Errorf(missingAttributeTemplateConstant, ErrMissingAttribute, elementName, attributeValueConstant)
	}
	value, conversionError := strconv.ParseFloat(rawValue, 64)
	if conversionError != nil {
		return 0, fmt.Errorf(invalidValueTemplateConstant, ErrInvalidValue, elementName, attributeValueConstant, rawValue, conversionError)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf(invalidValueTemplateConstant, ErrInvalidValue, elementName, attributeValueConstant, rawValue, notFiniteMessageConstant)
	}
	return value, nil
}

func parsePositive(element *valueElement, elementName string, defaultValue float64) (float64, error) {
	value, parseError := parseFinite(element, elementName, defaultValue)
	if parseError != nil {
		return 0, parseError
	}
	if value <= 0 {
		return 0, fmt.Errorf(invalidValueTemplateConstant, ErrInvalidValue, elementName, attributeValueConstant, element.Value, notPositiveMessageConstant)
	}
	return value, nil
}

func parseFlag(element *valueElement, elementName string, defaultValue bool) (bool, error) {
	if element == nil {
		return defaultValue, nil
	}
	rawValue := strings.TrimSpace(element.Value)
	if len(rawValue) == 0 {
		return defaultValue, nil
	}
	// Flags are integers; any non-zero value enables them.
	value, conversionError := strconv.Atoi(rawValue)
	if conversionError != nil {
		return false, fmt.Errorf(invalidValueTemplateConstant, ErrInvalidValue, elementName, attributeValueConstant, rawValue, conversionError)
	}
	return value != 0, nil
}

// Marshal serializes a configuration to the XML layout accepted by Load.
// Paths are written after placeholder expansion.
func Marshal(configuration Configuration) ([]byte, error) {
	serialized := document{
		XMLName:              xml.Name{Local: documentRootElementConstant},
		Data:                 toSourceElement(configuration.Data),
		Signal:               toSourceElement(configuration.Signal),
		Response:             toSourceElement(configuration.Response),
		Luminosity:           &valueElement{Value: formatFloat(configuration.Luminosity)},
		BranchingRatio:       &valueElement{Value: formatFloat(configuration.BranchingRatio)},
		TotalCrossSection:    &valueElement{Value: formatFlag(configuration.TotalCrossSection)},
		RecoScale:            &valueElement{Value: formatFloat(configuration.RecoScale)},
		EfficiencyCorrection: &valueElement{Value: formatFlag(configuration.EfficiencyCorrection)},
		TransposeResponse:    &valueElement{Value: formatFlag(configuration.TransposeResponse)},
		Unfolding: &unfoldingElement{
			Method:           configuration.Method.String(),
			Regularization:   strconv.Itoa(configuration.Regularization),
			StatisticalError: configuration.StatisticalError,
			Toys:             strconv.Itoa(configuration.Toys),
		},
	}
	if len(configuration.Background.File) > 0 || len(configuration.Background.Path) > 0 {
		serialized.Background = toSourceElement(configuration.Background)
	}
	if len(configuration.Generated.File) > 0 || len(configuration.Generated.Path) > 0 {
		serialized.Generated = toSourceElement(configuration.Generated)
	}
	if len(configuration.Particle) > 0 || len(configuration.Variable) > 0 {
		serialized.Spectrum = &spectrumElement{Particle: configuration.Particle, Variable: configuration.Variable}
	}

	encoded, encodeError := xml.MarshalIndent(serialized, "", documentIndentConstant)
	if encodeError != nil {
		return nil, fmt.Errorf(marshalErrorTemplateConstant, encodeError)
	}
	return append([]byte(xml.Header), append(encoded, '\n')...), nil
}

func toSourceElement(source HistogramSource) *sourceElement {
	return &sourceElement{File: source.File, Path: source.Path}
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

func formatFlag(value bool) string {
	if value {
		return booleanTrueConstant
	}
	return booleanFalseConstant
}
