package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gnana997/classwrap/pkg/classnames"
	"github.com/gnana997/classwrap/pkg/parser"
	"github.com/gnana997/classwrap/pkg/parser/queries"
	"github.com/gnana997/classwrap/pkg/transform"
	"github.com/gnana997/classwrap/pkg/util"
	"github.com/gnana997/classwrap/pkg/workspace"
)

// ruleFlags are the command-line spellings of the plugin options.
type ruleFlags struct {
	attributes         []string
	nameHint           string
	noShare            bool
	rewriteMembers     bool
	rewriteIdentifiers bool
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.attributes, "attribute", nil, "attribute names to rewrite (repeatable; replaces the default list)")
	fs.StringVar(&f.nameHint, "name-hint", "", "suggested local name of the classnames import")
	fs.BoolVar(&f.noShare, "no-share", false, "import classnames separately for every rewritten attribute")
	fs.BoolVar(&f.rewriteMembers, "rewrite-members", false, "also rewrite member expressions like {styles.root}")
	fs.BoolVar(&f.rewriteIdentifiers, "rewrite-identifiers", false, "also rewrite bare identifiers like {cls}")
	cmd.MarkFlagsMutuallyExclusive("name-hint", "no-share")
}

// apply overlays the flags the user actually set on opts, key by key.
func (f *ruleFlags) apply(cmd *cobra.Command, opts classnames.Options) classnames.Options {
	fs := cmd.Flags()
	if fs.Changed("attribute") {
		opts[classnames.KeyAttributeNames] = f.attributes
	}
	if fs.Changed("name-hint") {
		opts[classnames.KeyNameHint] = f.nameHint
	}
	if fs.Changed("no-share") && f.noShare {
		opts[classnames.KeyNameHint] = false
	}
	if fs.Changed("rewrite-members") {
		opts[classnames.KeyIgnoreMemberExpression] = !f.rewriteMembers
	}
	if fs.Changed("rewrite-identifiers") {
		opts[classnames.KeyIgnoreIdentifier] = !f.rewriteIdentifiers
	}
	return opts
}

// env is what a command needs to transform code: resolved configuration
// plus the parser and query managers.
type env struct {
	logger  *slog.Logger
	project *ProjectConfig
	options classnames.Options
	config  classnames.Config
	parsers *parser.ParserManager
	queries *queries.QueryManager
	cache   util.FileCache
}

// newEnv loads the project config and merges rf over its options.
func (a *app) newEnv(cmd *cobra.Command, rf *ruleFlags) (*env, error) {
	project, err := loadProjectConfig(a.configPath)
	if err != nil {
		return nil, err
	}

	logger := a.logger()
	opts := project.options()
	if rf != nil {
		opts = rf.apply(cmd, opts)
	}

	pm := parser.NewParserManager(logger)
	return &env{
		logger:  logger,
		project: project,
		options: opts,
		config:  classnames.Resolve(opts),
		parsers: pm,
		queries: queries.NewQueryManager(pm, logger),
	}, nil
}

func (e *env) host() *transform.Host {
	return transform.NewHost(e.parsers, e.queries, e.logger, classnames.NewRule(e.config))
}

func (e *env) runner() *workspace.Runner {
	if e.cache == nil {
		cfg := util.DefaultFileCacheConfig()
		cfg.Logger = e.logger
		e.cache = util.NewFileCache(cfg)
	}
	return workspace.NewRunner(e.host(), e.cache, e.logger)
}

func (e *env) close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.logger.Warn("Failed to close file cache", "error", err)
		}
	}
	if err := e.queries.Close(); err != nil {
		e.logger.Warn("Failed to close query manager", "error", err)
	}
	if err := e.parsers.Close(); err != nil {
		e.logger.Warn("Failed to close parser manager", "error", err)
	}
}
