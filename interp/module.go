package interp

import (
	"fmt"

	"github.com/jndean/railway/ast"
	"github.com/jndean/railway/driver"
	"github.com/jndean/railway/railerr"
	"github.com/jndean/railway/scope"
	"github.com/jndean/railway/value"
)

// Run builds a module's root scope, runs its global lines, binds argv,
// and calls main, mirroring Module.main. main runs directly on the root
// scope, not a fresh call frame, exactly as the reference interpreter
// does.
func Run(mod *ast.Module, argv []value.Rational, loader driver.Loader) error {
	root := scope.NewRoot(mod.Name)
	for name, fn := range mod.Functions {
		if err := root.AssignFunc(name, fn); err != nil {
			return err
		}
	}
	if err := runGlobalLines(mod.GlobalLines, root, loader); err != nil {
		return err
	}

	elems := make([]*value.Cell, len(argv))
	for i, r := range argv {
		elems[i] = value.NewScalarCell(r)
	}
	argvVar := &value.Variable{Memory: value.NewArrayCell(elems), IsArray: true}
	if err := root.Assign("argv", argvVar); err != nil {
		return err
	}

	mainFn, ok := mod.Functions["main"]
	if !ok {
		mainFn, ok = mod.Functions[".main"]
	}
	if !ok {
		return railerr.New(railerr.UndefinedFunction,
			fmt.Sprintf("There is no main function in %s", mod.Name), nil)
	}
	_, err := runFunction(mainFn, root, false)
	return err
}

// runGlobalLines executes a module's top-level lines once, in forward
// order. Import is handled specially here rather than via ExecStatement
// since merging an imported module's names needs the Loader.
func runGlobalLines(lines []ast.Statement, s *scope.Scope, loader driver.Loader) error {
	for _, line := range lines {
		if imp, ok := line.(*ast.Import); ok {
			if err := runImport(imp, s, loader); err != nil {
				return err
			}
			continue
		}
		if _, err := ExecStatement(line, s, false); err != nil {
			return err
		}
	}
	return nil
}

// runImport loads the named module, runs its own global lines in an
// isolated scope, then merges its globals and functions into s under the
// import's alias, mirroring Import.eval's three-pass merge.
func runImport(stmt *ast.Import, s *scope.Scope, loader driver.Loader) error {
	mod, err := loader.Load(stmt.Filename)
	if err != nil {
		return railerr.New(railerr.ImportError,
			fmt.Sprintf("Error opening file %q", stmt.Filename), s)
	}
	moduleScope := s.NewImportScope(stmt.Filename)
	if err := runGlobalLines(mod.GlobalLines, moduleScope, loader); err != nil {
		return err
	}

	mergedName := func(key string) string {
		switch {
		case stmt.Alias == "":
			return key
		case len(key) > 0 && key[0] == '.':
			return "." + stmt.Alias + key
		default:
			return stmt.Alias + "." + key
		}
	}
	for key, v := range moduleScope.Globals() {
		if err := s.AssignGlobal(mergedName(key), v); err != nil {
			return err
		}
	}
	for key, fn := range moduleScope.Functions() {
		if err := s.AssignFunc(mergedName(key), fn); err != nil {
			return err
		}
	}
	for key, fn := range mod.Functions {
		if err := s.AssignFunc(mergedName(key), fn); err != nil {
			return err
		}
	}
	return nil
}
