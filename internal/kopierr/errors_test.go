package kopierr

import "testing"

func TestExitCodeAmbiguousJdkDependsOnContext(t *testing.T) {
	shim := &AmbiguousJdk{Pattern: "temurin@21", Candidates: []string{"temurin-21.0.1", "temurin-21.0.2"}}
	if got := ExitCode(shim); got != ExitToolNotFound {
		t.Fatalf("shim/which-style AmbiguousJdk: ExitCode = %d, want %d", got, ExitToolNotFound)
	}

	cliArg := &AmbiguousJdk{Pattern: "temurin@21", Candidates: []string{"temurin-21.0.1", "temurin-21.0.2"}, ForArguments: true}
	if got := ExitCode(cliArg); got != ExitInvalidArguments {
		t.Fatalf("uninstall-style AmbiguousJdk: ExitCode = %d, want %d", got, ExitInvalidArguments)
	}
}

func TestHintAmbiguousJdkDependsOnContext(t *testing.T) {
	shim := &AmbiguousJdk{Pattern: "temurin@21", Candidates: []string{"temurin-21.0.1"}}
	if hints := Hint(shim); len(hints) == 0 {
		t.Fatal("expected a hint for shim-style AmbiguousJdk")
	}

	cliArg := &AmbiguousJdk{Pattern: "temurin@21", Candidates: []string{"temurin-21.0.1"}, ForArguments: true}
	hints := Hint(cliArg)
	if len(hints) == 0 {
		t.Fatal("expected a hint for uninstall-style AmbiguousJdk")
	}
}

func TestExitCodeNilIsOK(t *testing.T) {
	if got := ExitCode(nil); got != ExitOK {
		t.Fatalf("ExitCode(nil) = %d, want %d", got, ExitOK)
	}
}
