// Package junit reads JUnit XML reports and replays them into a reporting session.
package junit

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"angles-reporter/src/contracts"
)

// TestSuites is the root element for multiple test suites.
type TestSuites struct {
	XMLName    xml.Name    `xml:"testsuites"`
	TestSuites []TestSuite `xml:"testsuite"`
}

// TestSuite represents a <testsuite> element.
type TestSuite struct {
	Name      string     `xml:"name,attr"`
	Tests     int        `xml:"tests,attr"`
	Failures  int        `xml:"failures,attr"`
	Errors    int        `xml:"errors,attr"`
	Skipped   int        `xml:"skipped,attr"`
	Time      float64    `xml:"time,attr"`
	TestCases []TestCase `xml:"testcase"`
}

// TestCase represents a <testcase> element.
type TestCase struct {
	Name      string   `xml:"name,attr"`
	ClassName string   `xml:"classname,attr"`
	Time      float64  `xml:"time,attr"`
	Failure   *Failure `xml:"failure"`
	Error     *Error   `xml:"error"`
	Skipped   *Skipped `xml:"skipped"`
	SystemOut string   `xml:"system-out"`
}

// Failure represents a test failure.
type Failure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// Error represents a test error.
type Error struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Content string `xml:",chardata"`
}

// Skipped represents a skipped test.
type Skipped struct {
	Message string `xml:"message,attr"`
}

// ErrNotJUnit is returned for XML documents whose root is neither
// <testsuites> nor <testsuite>.
var ErrNotJUnit = errors.New("not a JUnit report")

// Parse parses JUnit XML data, accepting either a <testsuites> root or a
// single <testsuite>. An empty <testsuites/> yields no suites.
func Parse(data []byte) ([]TestSuite, error) {
	root, err := rootElement(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JUnit XML: %w", err)
	}

	switch root {
	case "testsuites":
		var suites TestSuites
		if err := xml.Unmarshal(data, &suites); err != nil {
			return nil, fmt.Errorf("failed to parse JUnit XML: %w", err)
		}
		return suites.TestSuites, nil
	case "testsuite":
		var suite TestSuite
		if err := xml.Unmarshal(data, &suite); err != nil {
			return nil, fmt.Errorf("failed to parse JUnit XML: %w", err)
		}
		return []TestSuite{suite}, nil
	default:
		return nil, fmt.Errorf("%w: root element <%s>", ErrNotJUnit, root)
	}
}

// rootElement returns the local name of the first element in data.
func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no root element")
			}
			return "", err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local, nil
		}
	}
}

// ParseFile reads and parses a JUnit XML file.
func ParseFile(path string) ([]TestSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	suites, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return suites, nil
}

// Status maps the case outcome onto a step state. Skipped cases report INFO.
// A case carrying both <failure> and <error> is an error.
func (tc *TestCase) Status() contracts.StepState {
	switch {
	case tc.Error != nil:
		return contracts.StepError
	case tc.Failure != nil:
		return contracts.StepFail
	case tc.Skipped != nil:
		return contracts.StepInfo
	default:
		return contracts.StepPass
	}
}

// Message returns the failure, error or skip message, if any.
func (tc *TestCase) Message() string {
	switch {
	case tc.Error != nil:
		return tc.Error.Message
	case tc.Failure != nil:
		return tc.Failure.Message
	case tc.Skipped != nil:
		return tc.Skipped.Message
	}
	return ""
}

// StackTrace returns the body of the <error> or <failure> element.
func (tc *TestCase) StackTrace() string {
	switch {
	case tc.Error != nil:
		return strings.TrimSpace(tc.Error.Content)
	case tc.Failure != nil:
		return strings.TrimSpace(tc.Failure.Content)
	}
	return ""
}

// FullName returns classname::name, or just the name without a class.
func (tc *TestCase) FullName() string {
	if tc.ClassName != "" {
		return fmt.Sprintf("%s::%s", tc.ClassName, tc.Name)
	}
	return tc.Name
}
