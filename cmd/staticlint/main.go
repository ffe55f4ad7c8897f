// Package main provides the staticlint multichecker for this project.
//
// Build:
//
//	go build -o staticlint ./cmd/staticlint
//
// Usage:
//
//	./staticlint ./...
//
// Analyzers:
//
// Std passes (golang.org/x/tools/go/analysis/passes): asmdecl, assign,
// atomic, bools, buildtag, cgocall, composite, copylock, errorsas,
// framepointer, httpresponse, ifaceassert, loopclosure, lostcancel,
// nilfunc, printf, shadow, shift, sigchanyzer, stdmethods,
// stringintconv, structtag, tests, unmarshal, unreachable, unsafeptr,
// unusedresult.
//
// Staticcheck (honnef.co/go/tools): all SA* bug-finding rules, plus
// ST1000 (package comment required).
//
// Public analyzers:
//   bodyclose (github.com/timakin/bodyclose) — ensures http.Response.Body is closed.
//   nilerr    (github.com/gostaticanalysis/nilerr) — returning nil error from an err != nil branch.
//
// Custom:
//   noosexit — forbids direct os.Exit inside main.main; skips go-build cache files and generated code.

package main

import (
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/gostaticanalysis/nilerr"
	"github.com/sqtools/sonarqube-client/internal/analyzers/noosexit"
	"github.com/timakin/bodyclose/passes/bodyclose"

	// std passes
	"golang.org/x/tools/go/analysis/passes/asmdecl"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/cgocall"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/framepointer"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/sigchanyzer"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
)

func collect() []*analysis.Analyzer {
	list := []*analysis.Analyzer{
		// std passes
		asmdecl.Analyzer, assign.Analyzer, atomic.Analyzer, bools.Analyzer, buildtag.Analyzer,
		cgocall.Analyzer, composite.Analyzer, copylock.Analyzer, errorsas.Analyzer, framepointer.Analyzer,
		httpresponse.Analyzer, ifaceassert.Analyzer, loopclosure.Analyzer, lostcancel.Analyzer, nilfunc.Analyzer,
		printf.Analyzer, shift.Analyzer, sigchanyzer.Analyzer, stdmethods.Analyzer, stringintconv.Analyzer,
		structtag.Analyzer, tests.Analyzer, unmarshal.Analyzer, unreachable.Analyzer, unsafeptr.Analyzer,
		unusedresult.Analyzer, shadow.Analyzer,

		// custom
		noosexit.Analyzer,
	}

	// add all SA* analyzers
	for _, a := range staticcheck.Analyzers {
		if len(a.Analyzer.Name) >= 2 && a.Analyzer.Name[:2] == "SA" {
			list = append(list, a.Analyzer)
		}
	}

	list = append(list, stylecheck.Analyzers[0].Analyzer) // ST1000 (package comment)
	list = append(list, bodyclose.Analyzer)
	list = append(list, nilerr.Analyzer)

	return list
}

func main() {
	multichecker.Main(collect()...)
}
