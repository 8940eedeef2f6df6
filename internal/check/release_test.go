package check

import (
	"fmt"
	"go/ast"
	"go/types"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

const (
	modulePath = "github.com/wippyai/handlekit"
	handlePkg  = modulePath + "/handle"
)

func loadModule(t *testing.T) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg, modulePath+"/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatalf("packages contain errors")
	}
	return pkgs
}

// inspectCalls reports every call expression in pkgs whose selector resolves
// to an object accepted by match.
func inspectCalls(pkgs []*packages.Package, match func(obj types.Object) bool, report func(pkg *packages.Package, call *ast.CallExpr)) {
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			ast.Inspect(file, func(n ast.Node) bool {
				call, ok := n.(*ast.CallExpr)
				if !ok {
					return true
				}
				selector, ok := call.Fun.(*ast.SelectorExpr)
				if !ok {
					return true
				}
				obj := pkg.TypesInfo.Uses[selector.Sel]
				if obj == nil || obj.Pkg() == nil {
					return true
				}
				if match(obj) {
					report(pkg, call)
				}
				return true
			})
		}
	}
}

// isReleaserMethod matches handlekit.Releaser.Release called through the
// interface. Concrete Release methods are not matched.
func isReleaserMethod(obj types.Object) bool {
	fn, ok := obj.(*types.Func)
	if !ok || fn.Name() != "Release" || fn.Pkg().Path() != modulePath {
		return false
	}
	recv := fn.Type().(*types.Signature).Recv()
	if recv == nil {
		return false
	}
	_, isIface := recv.Type().Underlying().(*types.Interface)
	return isIface
}

func TestReleaseOnlyInHandle(t *testing.T) {
	pkgs := loadModule(t)

	var findings []string
	seen := 0
	inspectCalls(pkgs, isReleaserMethod, func(pkg *packages.Package, call *ast.CallExpr) {
		seen++
		if pkg.PkgPath == handlePkg {
			return
		}
		pos := pkg.Fset.Position(call.Pos())
		findings = append(findings, fmt.Sprintf("%s: native release outside package handle", pos))
	})

	if seen == 0 {
		t.Fatalf("no Releaser.Release calls found; check is not matching")
	}
	if len(findings) > 0 {
		sort.Strings(findings)
		t.Fatalf("release ownership violation:\n%s", strings.Join(findings, "\n"))
	}
}

func TestCleanupOnlyInHandle(t *testing.T) {
	pkgs := loadModule(t)

	isCleanup := func(obj types.Object) bool {
		if obj.Pkg().Path() != "runtime" {
			return false
		}
		switch obj.Name() {
		case "AddCleanup", "SetFinalizer":
			return true
		}
		return false
	}

	var findings []string
	inspectCalls(pkgs, isCleanup, func(pkg *packages.Package, call *ast.CallExpr) {
		if pkg.PkgPath == handlePkg {
			return
		}
		pos := pkg.Fset.Position(call.Pos())
		findings = append(findings, fmt.Sprintf("%s: finalizer registered outside package handle", pos))
	})

	if len(findings) > 0 {
		sort.Strings(findings)
		t.Fatalf("cleanup ownership violation:\n%s", strings.Join(findings, "\n"))
	}
}
