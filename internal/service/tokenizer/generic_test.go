package tokenizer

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

func tokenize(data string) []string {
	return Tokenize([]byte(data)).Strings()
}

func assertTokens(t *testing.T, input string, want ...string) {
	t.Helper()
	if want == nil {
		want = []string{}
	}
	got := tokenize(input)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tokenize(%q)\nExpected %q\ngot      %q", input, want, got)
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize(nil); len(got) != 0 {
		t.Fatalf("Expected no tokens for nil input, got %v", got.Strings())
	}
	assertTokens(t, "")
	assertTokens(t, "   \n\t\n")
}

func TestTokenize_StringLiterals(t *testing.T) {
	assertTokens(t, `print ""`, "print", `"`, `"`)
	assertTokens(t, `print "Josh"`, "print", `"`, `<IN:"> Josh`, `"`)
	assertTokens(t, `print 'Josh'`, "print", `'`, `<IN:'> Josh`, `'`)
	assertTokens(t, `print "Hello \"Josh\""`,
		"print", `"`, `<IN:"> Hello`, `<IN:"> "`, `<IN:"> <IN:"> Josh`, `<IN:"> "`, `"`)
	assertTokens(t, `print 'Hello \'Josh\''`,
		"print", `'`, `<IN:'> Hello`, `<IN:'> '`, `<IN:'> <IN:'> Josh`, `<IN:'> '`, `'`)
	assertTokens(t, `print "Hello", "Josh"`,
		"print", `"`, `<IN:"> Hello`, `"`, `"`, `<IN:"> Josh`, `"`)
	assertTokens(t, `print 'Hello', 'Josh'`,
		"print", `'`, `<IN:'> Hello`, `'`, `'`, `<IN:'> Josh`, `'`)
	assertTokens(t, `print "Hello", "", "Josh"`,
		"print", `"`, `<IN:"> Hello`, `"`, `"`, `"`, `"`, `<IN:"> Josh`, `"`)
	assertTokens(t, `print 'Hello', '', 'Josh'`,
		"print", `'`, `<IN:'> Hello`, `'`, `'`, `'`, `'`, `<IN:'> Josh`, `'`)
}

func TestTokenize_NumberLiterals(t *testing.T) {
	assertTokens(t, "1 + 1", "<NUM>", "+", "<NUM>")
	assertTokens(t, "add(123, 456)", "add", "(", "<NUM>", "<NUM>", ")")
	assertTokens(t, "0x01 | 0x10", "<HEX>", "|", "<HEX>")
	assertTokens(t, "0XFFul", "<HEX>")
	assertTokens(t, "500.42 * 1.0", "<NUM>", "*", "<NUM>")
	assertTokens(t, "1.23e-04", "<NUM>")
	assertTokens(t, "1.0f", "<NUM>")
	assertTokens(t, "1234ULL", "<NUM>")
	assertTokens(t, "1.2.3", "<NUM>")
	assertTokens(t, "0x;", "<NUM>", "x", ";")
	assertTokens(t, "G1 X55 Y5 F2000", "G1", "X55", "Y5", "F2000")
}

func TestTokenize_Comments(t *testing.T) {
	assertTokens(t, "foo\n# Comment", "foo", "#", "<IN:#> Comment")
	assertTokens(t, "foo\n# Comment\nbar", "foo", "#", "<IN:#> Comment", "bar")
	assertTokens(t, "foo\n// Comment", "foo", "//", "<IN://> Comment")
	assertTokens(t, "foo\n-- Comment", "foo", "--", "<IN:--> Comment")
	assertTokens(t, "foo\n\" Comment", "foo", `"`, `<IN:"> Comment`)
	assertTokens(t, "foo /* Comment */", "foo", "/*", "<IN:/*> Comment", "*/")
	assertTokens(t, "foo /* \nComment\n */", "foo", "/*", "<IN:/*> Comment", "*/")
	assertTokens(t, "foo <!-- Comment -->", "foo", "<!--", "<IN:<!--> Comment", "-->")
	assertTokens(t, "foo {- Comment -}", "foo", "{-", "<IN:{-> Comment", "-}")
	assertTokens(t, "foo (* Comment *)", "foo", "(*", "<IN:(*> Comment", "*)")
	assertTokens(t, "2 % 10\n% Comment", "<NUM>", "%", "<NUM>", "%", "<IN:%> Comment")
	assertTokens(t, "foo\n\"\"\"\nComment\n\"\"\"\nbar", "foo", `"""`, `<IN:"""> Comment`, `"""`, "bar")
	assertTokens(t, "foo\n'''\nComment\n'''\nbar", "foo", "'''", "<IN:'''> Comment", "'''", "bar")
}

func TestTokenize_NestedAnnotation(t *testing.T) {
	assertTokens(t, "x /* # y */", "x", "/*", "<IN:/*> #", "<IN:/*> <IN:#> y", "*/")
	assertTokens(t, "# say \"hi\"", "#", "<IN:#> say", `<IN:#> "`, `<IN:#> <IN:"> hi`, `<IN:#> "`)
}

func TestTokenize_Unterminated(t *testing.T) {
	// The closer is still emitted and scanning resumes after the opener
	assertTokens(t, "foo /* bar", "foo", "/*", "*/", "bar")
	assertTokens(t, `print "abc`, "print", `"`, `"`, "abc")
	assertTokens(t, "<div id=foo", "<", "div", "id", "=", "foo")
}

func TestTokenize_SGMLTags(t *testing.T) {
	assertTokens(t, "<html></html>", "<html>", "</html>")
	assertTokens(t, "<div id></div>", "<div>", "id", "</div>")
	assertTokens(t, "<div id=foo></div>", "<div>", "id=", "</div>")
	assertTokens(t, "<div id class></div>", "<div>", "id", "class", "</div>")
	assertTokens(t, `<div id="foo bar"></div>`, "<div>", "id=", "</div>")
	assertTokens(t, `<div id='foo bar'></div>`, "<div>", "id=", "</div>")
	assertTokens(t, `<?xml version="1.0"?>`, "<?xml>", "version=")
	assertTokens(t, `<a href='x' class=foo>`, "<a>", "href=", "class=")
}

func TestTokenize_Operators(t *testing.T) {
	assertTokens(t, "1 + 1", "<NUM>", "+", "<NUM>")
	assertTokens(t, "1 ++ 1", "<NUM>", "++", "<NUM>")
	assertTokens(t, "1 - 1", "<NUM>", "-", "<NUM>")
	assertTokens(t, "i++", "i", "++")
	assertTokens(t, "i--", "i", "--")
	assertTokens(t, "1 * 1", "<NUM>", "*", "<NUM>")
	assertTokens(t, "1 ** 1", "<NUM>", "**", "<NUM>")
	assertTokens(t, "1 / 1", "<NUM>", "/", "<NUM>")
	assertTokens(t, "2 % 5", "<NUM>", "%", "<NUM>")
	assertTokens(t, "1 & 1", "<NUM>", "&", "<NUM>")
	assertTokens(t, "1 && 1", "<NUM>", "&&", "<NUM>")
	assertTokens(t, "1 | 1", "<NUM>", "|", "<NUM>")
	assertTokens(t, "1 || 1", "<NUM>", "||", "<NUM>")
	assertTokens(t, "1 < 0x01", "<NUM>", "<", "<HEX>")
	assertTokens(t, "1 << 0x01", "<NUM>", "<<", "<HEX>")
	assertTokens(t, "1 <<< 0x01", "<NUM>", "<<<", "<HEX>")
	assertTokens(t, "foo <<= 0x01", "foo", "<<=", "<HEX>")
	assertTokens(t, "foo >>= 0x01", "foo", ">>=", "<HEX>")
	assertTokens(t, "foo *= 0x01", "foo", "*=", "<HEX>")
	assertTokens(t, "foo ^ 0x01", "foo", "^", "<HEX>")
	assertTokens(t, "foo ^= 0x01", "foo", "^=", "<HEX>")
	assertTokens(t, "foo == bar", "foo", "==", "bar")
	assertTokens(t, "foo === bar", "foo", "===", "bar")
}

func TestTokenize_CFamily(t *testing.T) {
	header := "#ifndef HELLO_H\n#define HELLO_H\n\nvoid hello();\n\n#endif\n"
	assertTokens(t, header,
		"#", "<IN:#> ifndef", "<IN:#> HELLO_H",
		"#", "<IN:#> define", "<IN:#> HELLO_H",
		"void", "hello", "(", ")", ";",
		"#", "<IN:#> endif")

	source := "#include <stdio.h>\n\nint main()\n{\n  printf(\"Hello World\\n\");\n  return 0;\n}\n"
	assertTokens(t, source,
		"#", "<IN:#> include", "<IN:#> <stdio.h>",
		"int", "main", "(", ")", "{",
		"printf", "(", `"`, `<IN:"> Hello`, `<IN:"> World`, `<IN:"> n`, `"`, ")", ";",
		"return", "<NUM>", ";", "}")
}

func TestTokenize_ObjectiveC(t *testing.T) {
	assertTokens(t, "#import \"Foo.h\"\n\n@implementation Foo\n@end\n",
		"#", "<IN:#> import", `<IN:#> "`, `<IN:#> <IN:"> Foo.h`, `<IN:#> "`,
		"@implementation", "Foo", "@end")

	source := "#import <Cocoa/Cocoa.h>\n\nint main(int argc, char *argv[])\n{\n    NSLog(@\"Hello World\\n\");\n    return 0;\n}\n"
	assertTokens(t, source,
		"#", "<IN:#> import", "<IN:#> <Cocoa/Cocoa.h>",
		"int", "main", "(", "int", "argc", "char", "*", "argv", "[", "]", ")", "{",
		"NSLog", "(", "@", `"`, `<IN:"> Hello`, `<IN:"> World`, `<IN:"> n`, `"`, ")", ";",
		"return", "<NUM>", ";", "}")
}

func TestTokenize_JavaScriptAndRuby(t *testing.T) {
	assertTokens(t, "(function() {\n  console.log(\"Hello World\");\n}).call(this);\n",
		"(", "function", "(", ")", "{",
		"console.log", "(", `"`, `<IN:"> Hello`, `<IN:"> World`, `"`, ")", ";",
		"}", ")", ".call", "(", "this", ")", ";")

	assertTokens(t, "module Foo\nend\n", "module", "Foo", "end")
	assertTokens(t, "task :default do\n  puts \"Rake\"\nend\n",
		"task", "default", "do", "puts", `"`, `<IN:"> Rake`, `"`, "end")
}

func TestTokenize_Shebang(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"#!/bin/sh\necho hi\n", "<SHEBANG>sh"},
		{"#!/usr/bin/env bash\n", "<SHEBANG>bash"},
		{"#!/bin/zsh\n", "<SHEBANG>zsh"},
		{"#! /usr/bin/perl -w\n", "<SHEBANG>perl"},
		{"#!/usr/bin/env python3\nprint(1)\n", "<SHEBANG>python"},
		{"#!/usr/bin/ruby\n", "<SHEBANG>ruby"},
		{"#!/usr/bin/ruby2\n", "<SHEBANG>ruby"},
		{"#!/usr/bin/env node\n", "<SHEBANG>node"},
		{"#!/usr/bin/env php\n", "<SHEBANG>php"},
		{"#!/usr/bin/env escript\n", "<SHEBANG>escript"},
		{"#!/usr/bin/env A=B foo=bar awk -f\n", "<SHEBANG>awk"},
		{"#!/usr/bin/env\necho hi\n", "echo"},
	}

	for _, tt := range tests {
		got := tokenize(tt.input)
		if len(got) == 0 || got[0] != tt.want {
			t.Fatalf("tokenize(%q): expected first token %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestTokenize_ShebangOnlyAtStart(t *testing.T) {
	for _, tok := range tokenize("echo\n#!/bin/sh\n") {
		if strings.HasPrefix(tok, "<SHEBANG>") {
			t.Fatalf("Expected no shebang token outside the first line, got %q", tok)
		}
	}
}

func TestExtractShebang(t *testing.T) {
	tests := []struct {
		line string
		want string
		ok   bool
	}{
		{"#!/usr/bin/python2.7", "python", true},
		{"#!/usr/local/bin/", "bin", true},
		{"#!/usr/bin/env FOO=1", "", false},
		{"#!   ", "", false},
		{"#!/opt/3", "", false},
		{"not a shebang", "", false},
	}

	for _, tt := range tests {
		got, ok := extractShebang([]byte(tt.line))
		if got != tt.want || ok != tt.ok {
			t.Fatalf("extractShebang(%q): expected (%q, %v), got (%q, %v)", tt.line, tt.want, tt.ok, got, ok)
		}
	}
}

func TestTokenize_ByteLimit(t *testing.T) {
	input := strings.Repeat("a ", 60000)
	got := Tokenize([]byte(input))
	if len(got) != ByteLimit/2 {
		t.Fatalf("Expected %d tokens before the byte limit, got %d", ByteLimit/2, len(got))
	}
}

func TestTokenize_UnterminatedRepeats(t *testing.T) {
	assertTokens(t, "(* (* x", "(*", "*)", "(*", "*)", "x")
	assertTokens(t, "<!-- a\n<!-- b", "<!--", "-->", "a", "<!--", "-->", "b")
	assertTokens(t, `"a \" b \"`, `"`, `"`, "a", `"`, `"`, "b", `"`, `"`)
	assertTokens(t, "\n\n  \n\t// c\nx", "//", "<IN://> c", "x")
	assertTokens(t, "  \n  x\n  y", "x", "y")
}

func TestTokenize_WorkIsLinear(t *testing.T) {
	const size = 4 << 20
	tests := []struct {
		name  string
		input string
	}{
		{"newlines", strings.Repeat("\n", size)},
		{"blank lines", strings.Repeat(" \t\n", size/3)},
		{"unterminated block comments", strings.Repeat("(*\n", size/3)},
		{"unterminated xml comments", strings.Repeat("<!--\n", size/5)},
		{"unterminated string", `"` + strings.Repeat(`\"`, size/2)},
		{"words", strings.Repeat("a ", size/2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			Tokenize([]byte(tt.input))
			if elapsed := time.Since(start); elapsed > 2*time.Second {
				t.Fatalf("Expected %d bytes to tokenize in under 2s, took %s", len(tt.input), elapsed)
			}
		})
	}
}

func TestTokenize_NonASCII(t *testing.T) {
	assertTokens(t, "héllo \xff\xfe world", "h", "llo", "world")
}

func TestTokenize_Idempotent(t *testing.T) {
	input := "#!/usr/bin/env ruby\n# comment\nputs \"a\" if x <= 0x10 /* b */\n<p class=x>y</p>"
	first := tokenize(input)
	second := tokenize(input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Expected identical output, got %q and %q", first, second)
	}
}

func TestGeneric_Tokenize(t *testing.T) {
	g := NewGeneric()

	tokens, err := g.Tokenize(context.Background(), []byte("i++"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := tokens.Strings(); !reflect.DeepEqual(got, []string{"i", "++"}) {
		t.Fatalf("Expected [i ++], got %q", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Tokenize(ctx, []byte("i++")); err == nil {
		t.Fatal("Expected error for cancelled context, got nil")
	}
}
